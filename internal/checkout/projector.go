// Package checkout turns cart entries or a combo selection into the
// immutable line-item list handed to order creation. Prices and weights
// are captured at projection time so later catalog changes cannot alter
// an in-flight checkout.
package checkout

import (
	"context"
	"log"

	"go-techshop/internal/cart"
	"go-techshop/internal/catalog"
	"go-techshop/internal/combo"
	"go-techshop/internal/errs"
	"go-techshop/internal/pricing"

	"github.com/google/uuid"
)

// Line is one immutable checkout line.
type Line struct {
	SnapshotID        string  `json:"snapshot_id"`
	VariantID         int64   `json:"variant_id"`
	ProductName       string  `json:"product_name"`
	SKU               string  `json:"sku"`
	Quantity          int     `json:"quantity"`
	PriceModifier     int64   `json:"price_modifier"`
	OriginalUnitPrice int64   `json:"original_unit_price"`
	Discount          float64 `json:"discount"`
	DiscountType      string  `json:"discount_type"`
	LineTotal         int64   `json:"line_total"`
	WeightGrams       int64   `json:"weight_grams"`
}

type Projector struct {
	catalog catalog.Repository
}

func NewProjector(cat catalog.Repository) *Projector {
	return &Projector{catalog: cat}
}

// Project converts the cart ledger entries into checkout lines, in
// ledger order. A cart holding a withdrawn variant fails with NotFound
// so the stale line surfaces before order creation.
func (p *Projector) Project(ctx context.Context, entries []cart.Entry) ([]Line, error) {
	if len(entries) == 0 {
		return nil, errs.New(errs.Validation, "cart is empty")
	}

	snapshotID := uuid.New().String()
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		v, err := p.catalog.FindVariant(ctx, e.VariantID)
		if err != nil {
			return nil, err
		}
		line, err := p.variantLine(snapshotID, v, e.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// ProjectCombo emits the main variant line first, then the selected
// accompanying items in the order they were selected. Selecting a
// variant the combo does not carry is a validation failure.
func (p *Projector) ProjectCombo(ctx context.Context, c *combo.Combo, selectedVariantIDs []int64) ([]Line, error) {
	items := make(map[int64]combo.Item, len(c.Items))
	for _, item := range c.Items {
		items[item.VariantID] = item
	}

	snapshotID := uuid.New().String()

	main, err := p.catalog.FindVariant(ctx, c.MainVariantID)
	if err != nil {
		return nil, err
	}
	mainLine, err := p.variantLine(snapshotID, main, 1)
	if err != nil {
		return nil, err
	}
	lines := []Line{*mainLine}

	seen := make(map[int64]bool, len(selectedVariantIDs))
	for _, id := range selectedVariantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := items[id]
		if !ok {
			return nil, errs.Newf(errs.Validation, "variant %d is not part of combo %d", id, c.ID)
		}
		v, err := p.catalog.FindVariant(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		weight, err := parseWeight(v)
		if err != nil {
			return nil, err
		}

		unit := v.Product.BasePrice + v.PriceModifier
		lines = append(lines, Line{
			SnapshotID:        snapshotID,
			VariantID:         v.ID,
			ProductName:       v.Product.Name,
			SKU:               v.SKU,
			Quantity:          item.Quantity,
			PriceModifier:     v.PriceModifier,
			OriginalUnitPrice: unit,
			Discount:          item.Discount,
			DiscountType:      item.DiscountType,
			LineTotal:         pricing.ItemContribution(unit, item.Quantity, item.Discount, item.DiscountType),
			WeightGrams:       weight,
		})
	}
	return lines, nil
}

func (p *Projector) variantLine(snapshotID string, v *catalog.Variant, quantity int) (*Line, error) {
	weight, err := parseWeight(v)
	if err != nil {
		return nil, err
	}

	final, clamped := pricing.FinalPrice(v.Product.BasePrice, v.PriceModifier, v.Discount)
	if clamped {
		log.Printf("WARNING: negative price clamped for variant %d", v.ID)
	}

	return &Line{
		SnapshotID:        snapshotID,
		VariantID:         v.ID,
		ProductName:       v.Product.Name,
		SKU:               v.SKU,
		Quantity:          quantity,
		PriceModifier:     v.PriceModifier,
		OriginalUnitPrice: v.Product.BasePrice + v.PriceModifier,
		Discount:          v.Discount,
		DiscountType:      pricing.DiscountPercentage,
		LineTotal:         pricing.Line(final, quantity),
		WeightGrams:       weight,
	}, nil
}
