package combo

import (
	"context"
	"errors"

	"go-techshop/internal/errs"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, comboID int64) (*Combo, error)
	// FindAll lists combos; activeOnly hides soft-deleted ones.
	FindAll(ctx context.Context, activeOnly bool) ([]Combo, error)
	Create(ctx context.Context, c *Combo) error
	// Update persists combo fields and, when replaceItems is set,
	// swaps the item set in the same transaction.
	Update(ctx context.Context, c *Combo, replaceItems bool) error
	SetStatus(ctx context.Context, comboID int64, status string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByID(ctx context.Context, comboID int64) (*Combo, error) {
	var c Combo
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("combo_items.id ASC") }).
		First(&c, comboID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.NotFound, "combo %d not found", comboID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "find combo", err)
	}
	return &c, nil
}

func (r *gormRepository) FindAll(ctx context.Context, activeOnly bool) ([]Combo, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("combo_items.id ASC") }).
		Order("combos.id ASC")
	if activeOnly {
		query = query.Where("status = ?", StatusActive)
	}

	var combos []Combo
	if err := query.Find(&combos).Error; err != nil {
		return nil, errs.Wrap(errs.Internal, "list combos", err)
	}
	return combos, nil
}

func (r *gormRepository) Create(ctx context.Context, c *Combo) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return errs.Wrap(errs.Internal, "create combo", err)
	}
	return nil
}

func (r *gormRepository) Update(ctx context.Context, c *Combo, replaceItems bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":            c.Name,
			"slug":            c.Slug,
			"description":     c.Description,
			"main_variant_id": c.MainVariantID,
			"original_price":  c.OriginalPrice,
			"price":           c.Price,
			"start_date":      c.StartDate,
			"end_date":        c.EndDate,
		}
		res := tx.Model(&Combo{}).Where("id = ?", c.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if replaceItems {
			if err := tx.Where("combo_id = ?", c.ID).Delete(&Item{}).Error; err != nil {
				return err
			}
			for i := range c.Items {
				c.Items[i].ID = 0
				c.Items[i].ComboID = c.ID
			}
			if len(c.Items) > 0 {
				if err := tx.Create(&c.Items).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Newf(errs.NotFound, "combo %d not found", c.ID)
	}
	if err != nil {
		return errs.Wrap(errs.Internal, "update combo", err)
	}
	return nil
}

func (r *gormRepository) SetStatus(ctx context.Context, comboID int64, status string) error {
	res := r.db.WithContext(ctx).Model(&Combo{}).
		Where("id = ?", comboID).
		Update("status", status)
	if res.Error != nil {
		return errs.Wrap(errs.Internal, "set combo status", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Newf(errs.NotFound, "combo %d not found", comboID)
	}
	return nil
}
