package checkout

import (
	"context"
	"testing"

	"go-techshop/internal/cart"
	"go-techshop/internal/catalog"
	"go-techshop/internal/combo"
	"go-techshop/internal/errs"
	"go-techshop/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	variants map[int64]*catalog.Variant
}

func (f *fakeCatalog) FindVariant(ctx context.Context, variantID int64) (*catalog.Variant, error) {
	v, ok := f.variants[variantID]
	if !ok || v.Status == catalog.StatusDeleted {
		return nil, errs.Newf(errs.NotFound, "variant %d not found", variantID)
	}
	return v, nil
}

func (f *fakeCatalog) FindVariants(ctx context.Context, variantIDs []int64) (map[int64]*catalog.Variant, error) {
	out := make(map[int64]*catalog.Variant)
	for _, id := range variantIDs {
		if v, ok := f.variants[id]; ok && v.Status != catalog.StatusDeleted {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeCatalog) VariantPrice(ctx context.Context, variantID int64) (int64, error) {
	v, err := f.FindVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	return v.Product.BasePrice + v.PriceModifier, nil
}

func specVariant(id int64, base, modifier int64, discount float64, specs string) *catalog.Variant {
	return &catalog.Variant{
		ID:             id,
		ProductID:      id,
		SKU:            "SKU",
		PriceModifier:  modifier,
		Discount:       discount,
		StockQuantity:  10,
		Status:         catalog.StatusActive,
		TechnicalSpecs: specs,
		Product:        &catalog.Product{ID: id, Name: "Product", BasePrice: base, CategoryID: 1},
	}
}

const weightKg = `{"specs":[{"key":"Weight","value":"1.2 kg"}]}`
const weightG = `{"specs":[{"key":"weight","value":"500 g"}]}`

func TestProjectCapturesPricesAndWeights(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		10: specVariant(10, 1000, 50, 10, weightKg),
		11: specVariant(11, 200, 0, 0, weightG),
	}}
	p := NewProjector(cat)

	lines, err := p.Project(context.Background(), []cart.Entry{
		{UserID: 1, VariantID: 10, Quantity: 2},
		{UserID: 1, VariantID: 11, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, int64(10), lines[0].VariantID)
	assert.Equal(t, int64(1890), lines[0].LineTotal) // 945 * 2
	assert.Equal(t, int64(1200), lines[0].WeightGrams)
	assert.Equal(t, int64(1050), lines[0].OriginalUnitPrice)
	assert.Equal(t, int64(50), lines[0].PriceModifier)

	assert.Equal(t, int64(500), lines[1].WeightGrams)
	assert.Equal(t, lines[0].SnapshotID, lines[1].SnapshotID)
}

func TestProjectEmptyCart(t *testing.T) {
	p := NewProjector(&fakeCatalog{variants: map[int64]*catalog.Variant{}})

	_, err := p.Project(context.Background(), nil)
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestProjectWithdrawnVariantFailsLoudly(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{}}
	p := NewProjector(cat)

	_, err := p.Project(context.Background(), []cart.Entry{{UserID: 1, VariantID: 99, Quantity: 1}})
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestProjectMissingWeightSpecIsValidationError(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		10: specVariant(10, 1000, 0, 0, `{"specs":[{"key":"color","value":"black"}]}`),
	}}
	p := NewProjector(cat)

	_, err := p.Project(context.Background(), []cart.Entry{{UserID: 1, VariantID: 10, Quantity: 1}})
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestProjectUnparseableWeightIsValidationError(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		10: specVariant(10, 1000, 0, 0, `{"specs":[{"key":"weight","value":"heavy"}]}`),
	}}
	p := NewProjector(cat)

	_, err := p.Project(context.Background(), []cart.Entry{{UserID: 1, VariantID: 10, Quantity: 1}})
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestProjectComboMainLineFirst(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		1: specVariant(1, 1000, 50, 10, weightKg),
		2: specVariant(2, 200, 0, 0, weightG),
		3: specVariant(3, 300, 0, 0, weightG),
	}}
	p := NewProjector(cat)

	c := &combo.Combo{
		ID:            5,
		MainVariantID: 1,
		Items: []combo.Item{
			{VariantID: 2, Quantity: 1, Discount: 20, DiscountType: pricing.DiscountPercentage},
			{VariantID: 3, Quantity: 2, Discount: 100, DiscountType: pricing.DiscountFixed},
		},
	}

	lines, err := p.ProjectCombo(context.Background(), c, []int64{2, 3})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// main product line first, then selections in the requested order
	assert.Equal(t, int64(1), lines[0].VariantID)
	assert.Equal(t, int64(945), lines[0].LineTotal)
	assert.Equal(t, int64(2), lines[1].VariantID)
	assert.Equal(t, int64(160), lines[1].LineTotal)
	assert.Equal(t, int64(3), lines[2].VariantID)
	assert.Equal(t, int64(500), lines[2].LineTotal) // 600 - 100 fixed

	for _, line := range lines {
		assert.Equal(t, lines[0].SnapshotID, line.SnapshotID)
	}
}

func TestProjectComboFollowsSelectionOrder(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		1: specVariant(1, 1000, 0, 0, weightKg),
		2: specVariant(2, 200, 0, 0, weightG),
		3: specVariant(3, 300, 0, 0, weightG),
	}}
	p := NewProjector(cat)

	c := &combo.Combo{
		ID:            5,
		MainVariantID: 1,
		Items: []combo.Item{
			{VariantID: 2, Quantity: 1, DiscountType: pricing.DiscountPercentage},
			{VariantID: 3, Quantity: 1, DiscountType: pricing.DiscountPercentage},
		},
	}

	// selected in the reverse of the combo's item order, repeated once
	lines, err := p.ProjectCombo(context.Background(), c, []int64{3, 2, 3})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1), lines[0].VariantID)
	assert.Equal(t, int64(3), lines[1].VariantID)
	assert.Equal(t, int64(2), lines[2].VariantID)
}

func TestProjectComboRejectsForeignSelection(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		1: specVariant(1, 1000, 0, 0, weightKg),
		2: specVariant(2, 200, 0, 0, weightG),
	}}
	p := NewProjector(cat)

	c := &combo.Combo{
		ID:            5,
		MainVariantID: 1,
		Items: []combo.Item{
			{VariantID: 2, Quantity: 1, DiscountType: pricing.DiscountPercentage},
		},
	}

	_, err := p.ProjectCombo(context.Background(), c, []int64{99})
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestProjectComboSkipsUnselectedItems(t *testing.T) {
	cat := &fakeCatalog{variants: map[int64]*catalog.Variant{
		1: specVariant(1, 1000, 0, 0, weightKg),
		2: specVariant(2, 200, 0, 0, weightG),
		3: specVariant(3, 300, 0, 0, weightG),
	}}
	p := NewProjector(cat)

	c := &combo.Combo{
		ID:            5,
		MainVariantID: 1,
		Items: []combo.Item{
			{VariantID: 2, Quantity: 1, DiscountType: pricing.DiscountPercentage},
			{VariantID: 3, Quantity: 1, DiscountType: pricing.DiscountPercentage},
		},
	}

	lines, err := p.ProjectCombo(context.Background(), c, []int64{3})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].VariantID)
	assert.Equal(t, int64(3), lines[1].VariantID)
}

func TestParseWeightValue(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"1.2 kg", 1200},
		{"500 g", 500},
		{"500g", 500},
		{"750", 750},
		{"2KG", 2000},
	}
	for _, tt := range tests {
		got, err := parseWeightValue(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, raw := range []string{"", "heavy", "-5 g", "0"} {
		_, err := parseWeightValue(raw)
		assert.Error(t, err, raw)
	}
}
