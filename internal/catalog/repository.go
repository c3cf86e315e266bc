package catalog

import (
	"context"
	"errors"

	"go-techshop/internal/errs"

	"gorm.io/gorm"
)

// Repository is the read side of the catalog. Writes belong to the
// admin surface, which is out of this service's scope.
type Repository interface {
	// FindVariant returns a non-DELETED variant with its product.
	FindVariant(ctx context.Context, variantID int64) (*Variant, error)
	// FindVariants resolves a batch; missing or DELETED ids are simply
	// absent from the result.
	FindVariants(ctx context.Context, variantIDs []int64) (map[int64]*Variant, error)
	// VariantPrice returns the modifier-adjusted, undiscounted unit
	// price for a variant.
	VariantPrice(ctx context.Context, variantID int64) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindVariant(ctx context.Context, variantID int64) (*Variant, error) {
	var v Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND status <> ?", variantID, StatusDeleted).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.NotFound, "variant %d not found", variantID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "find variant", err)
	}
	return &v, nil
}

func (r *gormRepository) FindVariants(ctx context.Context, variantIDs []int64) (map[int64]*Variant, error) {
	var variants []Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ? AND status <> ?", variantIDs, StatusDeleted).
		Find(&variants).Error
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "find variants", err)
	}

	out := make(map[int64]*Variant, len(variants))
	for i := range variants {
		out[variants[i].ID] = &variants[i]
	}
	return out, nil
}

func (r *gormRepository) VariantPrice(ctx context.Context, variantID int64) (int64, error) {
	v, err := r.FindVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	if v.Product == nil {
		return 0, errs.Newf(errs.Internal, "variant %d has no product", variantID)
	}
	return v.Product.BasePrice + v.PriceModifier, nil
}
