package combo

import (
	"context"
	"log"
	"time"

	"go-techshop/internal/cache"
	"go-techshop/internal/catalog"
	"go-techshop/internal/errs"
	"go-techshop/internal/pricing"
)

type ItemInput struct {
	VariantID    int64   `json:"variant_id"`
	Quantity     int     `json:"quantity"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discount_type"`
}

type CreateInput struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MainVariantID int64       `json:"main_variant_id"`
	StartDate     *time.Time  `json:"start_date"`
	EndDate       *time.Time  `json:"end_date"`
	Items         []ItemInput `json:"items"`
}

// UpdateInput carries partial fields; nil means "leave unchanged".
type UpdateInput struct {
	Name          *string     `json:"name"`
	Description   *string     `json:"description"`
	MainVariantID *int64      `json:"main_variant_id"`
	StartDate     *time.Time  `json:"start_date"`
	EndDate       *time.Time  `json:"end_date"`
	Items         []ItemInput `json:"items"`
}

// Service is the combo builder.
type Service struct {
	repo        Repository
	catalog     catalog.Repository
	store       cache.Store
	invalidator *cache.Invalidator
}

func NewService(repo Repository, cat catalog.Repository, store cache.Store, inv *cache.Invalidator) *Service {
	return &Service{repo: repo, catalog: cat, store: store, invalidator: inv}
}

// Create snapshots current catalog prices into a new combo.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	if in.Name == "" {
		return nil, errs.New(errs.Validation, "combo name is required")
	}
	if len(in.Items) == 0 {
		return nil, errs.New(errs.Validation, "combo requires at least one item")
	}

	items, err := s.validateItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	original, price, err := s.computePrices(ctx, in.MainVariantID, items)
	if err != nil {
		return nil, err
	}

	c := &Combo{
		Name:          in.Name,
		Slug:          slugify(in.Name),
		Description:   in.Description,
		MainVariantID: in.MainVariantID,
		OriginalPrice: original,
		Price:         price,
		Status:        StatusActive,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Items:         items,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx, c.ID)
	return s.buildDetail(ctx, c)
}

// Update changes only the supplied fields. Prices are recomputed from
// current catalog prices whenever the main variant or the item set
// changes.
func (s *Service) Update(ctx context.Context, comboID int64, in UpdateInput) (*Detail, error) {
	c, err := s.repo.FindByID(ctx, comboID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
		c.Slug = slugify(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.StartDate != nil {
		c.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		c.EndDate = in.EndDate
	}

	reprice := false
	if in.MainVariantID != nil && *in.MainVariantID != c.MainVariantID {
		c.MainVariantID = *in.MainVariantID
		reprice = true
	}

	replaceItems := false
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, errs.New(errs.Validation, "combo requires at least one item")
		}
		items, err := s.validateItems(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		c.Items = items
		reprice = true
		replaceItems = true
	}

	if reprice {
		original, price, err := s.computePrices(ctx, c.MainVariantID, c.Items)
		if err != nil {
			return nil, err
		}
		c.OriginalPrice = original
		c.Price = price
	}

	if err := s.repo.Update(ctx, c, replaceItems); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx, c.ID)
	return s.buildDetail(ctx, c)
}

// SoftDelete flags the combo deleted, keeping history.
func (s *Service) SoftDelete(ctx context.Context, comboID int64) error {
	if _, err := s.repo.FindByID(ctx, comboID); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, comboID, StatusDeleted); err != nil {
		return err
	}
	s.invalidateListings(ctx, comboID)
	return nil
}

// Restore clears the deletion flag.
func (s *Service) Restore(ctx context.Context, comboID int64) error {
	if _, err := s.repo.FindByID(ctx, comboID); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, comboID, StatusActive); err != nil {
		return err
	}
	s.invalidateListings(ctx, comboID)
	return nil
}

// GetByID reads through product_combo_{id}.
func (s *Service) GetByID(ctx context.Context, comboID int64) (*Detail, error) {
	key := cache.KeyCombo(comboID)

	var cached Detail
	if hit, err := s.store.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		log.Printf("cache read failed for %s: %v", key, err)
	}

	c, err := s.repo.FindByID(ctx, comboID)
	if err != nil {
		return nil, err
	}

	detail, err := s.buildDetail(ctx, c)
	if err != nil {
		return nil, err
	}

	tags := []string{cache.TagCombo(comboID), cache.TagVariant(c.MainVariantID)}
	for _, item := range c.Items {
		tags = append(tags, cache.TagVariant(item.VariantID))
	}
	if err := s.store.Set(ctx, key, detail, tags...); err != nil {
		log.Printf("cache write failed for %s: %v", key, err)
	}
	return detail, nil
}

// List reads through all_product_combos; soft-deleted combos are hidden.
func (s *Service) List(ctx context.Context) ([]Detail, error) {
	return s.list(ctx, cache.KeyAllCombos, true)
}

// ListManagement includes soft-deleted combos for the admin surface.
func (s *Service) ListManagement(ctx context.Context) ([]Detail, error) {
	return s.list(ctx, cache.KeyAllCombosManagement, false)
}

func (s *Service) list(ctx context.Context, key string, activeOnly bool) ([]Detail, error) {
	var cached []Detail
	if hit, err := s.store.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Printf("cache read failed for %s: %v", key, err)
	}

	combos, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	details := make([]Detail, 0, len(combos))
	for i := range combos {
		d, err := s.buildDetail(ctx, &combos[i])
		if err != nil {
			if errs.Is(err, errs.NotFound) {
				// main variant withdrawn; hide the combo from listings
				continue
			}
			return nil, err
		}
		details = append(details, *d)
	}

	if err := s.store.Set(ctx, key, details); err != nil {
		log.Printf("cache write failed for %s: %v", key, err)
	}
	return details, nil
}

func (s *Service) validateItems(ctx context.Context, in []ItemInput) ([]Item, error) {
	ids := make([]int64, 0, len(in))
	for _, item := range in {
		ids = append(ids, item.VariantID)
	}

	variants, err := s.catalog.FindVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(in))
	for _, item := range in {
		v, ok := variants[item.VariantID]
		if !ok || v.Status != catalog.StatusActive {
			return nil, errs.Newf(errs.NotFound, "variant %d not found", item.VariantID)
		}
		// coarse gate; the authoritative stock check happens at cart time
		if v.StockQuantity <= 0 {
			return nil, errs.Newf(errs.OutOfStock, "variant %d is out of stock", item.VariantID)
		}
		if item.Quantity < 1 {
			return nil, errs.Newf(errs.Validation, "quantity for variant %d must be at least 1", item.VariantID)
		}

		unit := v.Product.BasePrice + v.PriceModifier
		line := pricing.Line(unit, item.Quantity)
		switch item.DiscountType {
		case pricing.DiscountPercentage:
			if item.Discount < 0 || item.Discount > 100 {
				return nil, errs.Newf(errs.Validation, "percentage discount for variant %d must be within [0,100]", item.VariantID)
			}
		case pricing.DiscountFixed:
			if item.Discount < 0 || item.Discount > float64(line) {
				return nil, errs.Newf(errs.Validation, "fixed discount for variant %d exceeds line price", item.VariantID)
			}
		default:
			return nil, errs.Newf(errs.Validation, "unknown discount type %q", item.DiscountType)
		}

		items = append(items, Item{
			VariantID:    item.VariantID,
			Quantity:     item.Quantity,
			Discount:     item.Discount,
			DiscountType: item.DiscountType,
		})
	}
	return items, nil
}

// computePrices derives the aggregate pair: original is the sum of
// undiscounted modifier-adjusted line prices including the main
// variant; price applies the main variant's own discount plus each
// item's discount to its own contribution only.
func (s *Service) computePrices(ctx context.Context, mainVariantID int64, items []Item) (original, price int64, err error) {
	main, err := s.catalog.FindVariant(ctx, mainVariantID)
	if err != nil {
		return 0, 0, err
	}
	if main.Status != catalog.StatusActive {
		return 0, 0, errs.Newf(errs.NotFound, "variant %d not found", mainVariantID)
	}

	mainUnit := main.Product.BasePrice + main.PriceModifier
	mainFinal, clamped := pricing.FinalPrice(main.Product.BasePrice, main.PriceModifier, main.Discount)
	if clamped {
		log.Printf("WARNING: negative price clamped for variant %d", main.ID)
	}

	original = mainUnit
	price = mainFinal

	for _, item := range items {
		unit, err := s.catalog.VariantPrice(ctx, item.VariantID)
		if err != nil {
			return 0, 0, err
		}
		original += pricing.Line(unit, item.Quantity)
		price += pricing.ItemContribution(unit, item.Quantity, item.Discount, item.DiscountType)
	}
	return original, price, nil
}

func (s *Service) buildDetail(ctx context.Context, c *Combo) (*Detail, error) {
	main, err := s.catalog.FindVariant(ctx, c.MainVariantID)
	if err != nil {
		return nil, err
	}

	mainUnit := main.Product.BasePrice + main.PriceModifier
	mainFinal, _ := pricing.FinalPrice(main.Product.BasePrice, main.PriceModifier, main.Discount)

	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.VariantID)
	}
	variants, err := s.catalog.FindVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	// group by category in insertion order; the first item per category
	// is the pre-selected default
	var groups []CategoryGroup
	groupIdx := make(map[int64]int)
	for _, item := range c.Items {
		v, ok := variants[item.VariantID]
		if !ok {
			continue
		}
		unit := v.Product.BasePrice + v.PriceModifier
		detail := ItemDetail{
			VariantID:    item.VariantID,
			ProductName:  v.Product.Name,
			SKU:          v.SKU,
			CategoryID:   v.Product.CategoryID,
			Quantity:     item.Quantity,
			Discount:     item.Discount,
			DiscountType: item.DiscountType,
			UnitPrice:    unit,
			LinePrice:    pricing.Line(unit, item.Quantity),
			Contribution: pricing.ItemContribution(unit, item.Quantity, item.Discount, item.DiscountType),
		}

		idx, ok := groupIdx[detail.CategoryID]
		if !ok {
			groups = append(groups, CategoryGroup{
				CategoryID:       detail.CategoryID,
				DefaultVariantID: detail.VariantID,
			})
			idx = len(groups) - 1
			groupIdx[detail.CategoryID] = idx
		}
		groups[idx].Items = append(groups[idx].Items, detail)
	}

	return &Detail{
		Combo: *c,
		MainVariant: MainVariantInfo{
			VariantID:       main.ID,
			ProductName:     main.Product.Name,
			SKU:             main.SKU,
			OriginalPrice:   mainUnit,
			FinalPrice:      mainFinal,
			DiscountPercent: main.Discount,
		},
		Groups:       groups,
		TotalSavings: pricing.Savings(c.OriginalPrice, c.Price),
	}, nil
}

func (s *Service) invalidateListings(ctx context.Context, comboID int64) {
	s.invalidator.Invalidate(ctx, cache.Invalidation{
		Keys:     []string{cache.KeyAllCombos, cache.KeyAllCombosManagement},
		Tags:     []string{cache.TagCombo(comboID)},
		Patterns: []string{cache.PatternProducts},
	})
}
