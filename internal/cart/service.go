package cart

import (
	"context"
	"log"

	"go-techshop/internal/cache"
	"go-techshop/internal/catalog"
	"go-techshop/internal/errs"
	"go-techshop/internal/pricing"
)

// Service is the cart ledger. All mutations go read-modify-write
// against MySQL; the cache is only ever invalidated, never written
// through, and only after the write commits.
type Service struct {
	repo        Repository
	catalog     catalog.Repository
	store       cache.Store
	invalidator *cache.Invalidator
}

func NewService(repo Repository, cat catalog.Repository, store cache.Store, inv *cache.Invalidator) *Service {
	return &Service{repo: repo, catalog: cat, store: store, invalidator: inv}
}

// AddItem merges by addition: repeated adds of the same variant
// accumulate quantity instead of overwriting it.
func (s *Service) AddItem(ctx context.Context, userID, variantID int64, quantity int) (*Line, error) {
	if quantity < 1 {
		return nil, errs.New(errs.Validation, "quantity must be at least 1")
	}

	entry, err := s.repo.MergeAdd(ctx, userID, variantID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, cache.Invalidation{
		Keys: []string{
			cache.KeyCartLine(userID, variantID),
			cache.KeyCartList(userID),
		},
	})

	return s.toLine(ctx, entry)
}

// UpdateQuantity overwrites the quantity of an existing entry. Zero or
// negative quantity is a validation error; removal is explicit.
func (s *Service) UpdateQuantity(ctx context.Context, userID, variantID int64, quantity int) (*Line, error) {
	if quantity < 1 {
		return nil, errs.New(errs.Validation, "quantity must be at least 1")
	}

	entry, err := s.repo.SetQuantity(ctx, userID, variantID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, cache.Invalidation{
		Keys: []string{
			cache.KeyCartLine(userID, variantID),
			cache.KeyCartList(userID),
		},
	})

	return s.toLine(ctx, entry)
}

// ChangeVariant moves an entry to a new variant, preserving quantity.
func (s *Service) ChangeVariant(ctx context.Context, userID, oldVariantID, newVariantID int64) (*Line, error) {
	if oldVariantID == newVariantID {
		return nil, errs.New(errs.Validation, "old and new variant are the same")
	}

	entry, err := s.repo.Move(ctx, userID, oldVariantID, newVariantID)
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, cache.Invalidation{
		Keys: []string{
			cache.KeyCartLine(userID, oldVariantID),
			cache.KeyCartLine(userID, newVariantID),
			cache.KeyCartList(userID),
		},
	})

	return s.toLine(ctx, entry)
}

// RemoveItem deletes an entry. A retry reports NotFound rather than
// silently succeeding.
func (s *Service) RemoveItem(ctx context.Context, userID, variantID int64) error {
	if err := s.repo.Delete(ctx, userID, variantID); err != nil {
		return err
	}

	s.invalidator.Invalidate(ctx, cache.Invalidation{
		Keys: []string{
			cache.KeyCartLine(userID, variantID),
			cache.KeyCartList(userID),
		},
	})

	return nil
}

// List returns the priced cart, read-through on cart_products_user_{id}.
func (s *Service) List(ctx context.Context, userID int64) ([]Line, error) {
	key := cache.KeyCartList(userID)

	var cached []Line
	if hit, err := s.store.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Printf("cache read failed for %s: %v", key, err)
	}

	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(entries))
	for i := range entries {
		line, err := s.toLine(ctx, &entries[i])
		if err != nil {
			if errs.Is(err, errs.NotFound) {
				// variant withdrawn since it was added; skip the line
				continue
			}
			return nil, err
		}
		lines = append(lines, *line)
	}

	if err := s.store.Set(ctx, key, lines, cache.TagUser(userID)); err != nil {
		log.Printf("cache write failed for %s: %v", key, err)
	}
	return lines, nil
}

// GetEntry returns one priced line, read-through on
// cart_user_{u}_product_{v}.
func (s *Service) GetEntry(ctx context.Context, userID, variantID int64) (*Line, error) {
	key := cache.KeyCartLine(userID, variantID)

	var cached Line
	if hit, err := s.store.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		log.Printf("cache read failed for %s: %v", key, err)
	}

	entry, err := s.repo.Find(ctx, userID, variantID)
	if err != nil {
		return nil, err
	}

	line, err := s.toLine(ctx, entry)
	if err != nil {
		return nil, err
	}

	tags := []string{cache.TagUser(userID), cache.TagVariant(variantID)}
	if err := s.store.Set(ctx, key, line, tags...); err != nil {
		log.Printf("cache write failed for %s: %v", key, err)
	}
	return line, nil
}

// Entries exposes raw ledger rows for the checkout projector.
func (s *Service) Entries(ctx context.Context, userID int64) ([]Entry, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) toLine(ctx context.Context, e *Entry) (*Line, error) {
	v, err := s.catalog.FindVariant(ctx, e.VariantID)
	if err != nil {
		return nil, err
	}
	if v.Product == nil {
		return nil, errs.Newf(errs.Internal, "variant %d has no product", v.ID)
	}

	final, clamped := pricing.FinalPrice(v.Product.BasePrice, v.PriceModifier, v.Discount)
	if clamped {
		log.Printf("WARNING: negative price clamped for variant %d (base=%d modifier=%d discount=%.2f)",
			v.ID, v.Product.BasePrice, v.PriceModifier, v.Discount)
	}

	return &Line{
		VariantID:         v.ID,
		ProductID:         v.Product.ID,
		ProductName:       v.Product.Name,
		SKU:               v.SKU,
		ThumbnailURL:      v.ThumbnailURL,
		Quantity:          e.Quantity,
		OriginalUnitPrice: v.Product.BasePrice + v.PriceModifier,
		UnitPrice:         final,
		DiscountPercent:   v.Discount,
		LineTotal:         pricing.Line(final, e.Quantity),
	}, nil
}
