package cart

import (
	"context"
	"errors"

	"go-techshop/internal/catalog"
	"go-techshop/internal/errs"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the write/read surface of the cart ledger. Every
// mutation re-reads current stock inside its own transaction; cached
// values are never trusted for the stock gate.
type Repository interface {
	Find(ctx context.Context, userID, variantID int64) (*Entry, error)
	List(ctx context.Context, userID int64) ([]Entry, error)
	// MergeAdd creates the (user, variant) entry or adds quantity to an
	// existing one, holding the variant row lock across the
	// read-modify-write so concurrent adds serialize against stock.
	MergeAdd(ctx context.Context, userID, variantID int64, quantity int) (*Entry, error)
	// SetQuantity overwrites the quantity of an existing entry.
	SetQuantity(ctx context.Context, userID, variantID int64, quantity int) (*Entry, error)
	// Move re-points an entry at a new variant, preserving quantity.
	Move(ctx context.Context, userID, oldVariantID, newVariantID int64) (*Entry, error)
	Delete(ctx context.Context, userID, variantID int64) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

const mysqlDupEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

var errEntryNotFound = errs.New(errs.NotFound, "product does not exist in cart")

func (r *gormRepository) Find(ctx context.Context, userID, variantID int64) (*Entry, error) {
	var e Entry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errEntryNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "find cart entry", err)
	}
	return &e, nil
}

func (r *gormRepository) List(ctx context.Context, userID int64) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list cart entries", err)
	}
	return entries, nil
}

// lockVariant re-reads the variant row FOR UPDATE so the stock check
// and the entry write happen under the same row lock.
func lockVariant(tx *gorm.DB, variantID int64) (*catalog.Variant, error) {
	var v catalog.Variant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status <> ?", variantID, catalog.StatusDeleted).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.NotFound, "variant %d not found", variantID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "lock variant", err)
	}
	if v.Status != catalog.StatusActive {
		return nil, errs.Newf(errs.NotFound, "variant %d is not available", variantID)
	}
	return &v, nil
}

func (r *gormRepository) MergeAdd(ctx context.Context, userID, variantID int64, quantity int) (*Entry, error) {
	var out Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := lockVariant(tx, variantID)
		if err != nil {
			return err
		}

		existing := 0
		var e Entry
		findErr := tx.Where("user_id = ? AND variant_id = ?", userID, variantID).First(&e).Error
		switch {
		case findErr == nil:
			existing = e.Quantity
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			// first add for this variant
		default:
			return errs.Wrap(errs.Internal, "find cart entry", findErr)
		}

		if existing+quantity > v.StockQuantity {
			return errs.Newf(errs.OutOfStock, "insufficient stock for variant %d", variantID)
		}

		if existing == 0 && findErr != nil {
			e = Entry{UserID: userID, VariantID: variantID, Quantity: quantity}
			created, err := createOrMerge(
				func(entry *Entry) error { return tx.Create(entry).Error },
				func() error { return r.atomicAdd(tx, userID, variantID, quantity, &out) },
				&e,
			)
			if err != nil {
				return err
			}
			if created {
				out = e
			}
			return nil
		}

		return r.atomicAdd(tx, userID, variantID, quantity, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// createOrMerge inserts the first entry for a (user, variant) pair. A
// concurrent add can win the unique-index race between the read and the
// insert; that duplicate error is converted into the equivalent
// increment instead of surfacing. created reports whether the insert
// itself went through.
func createOrMerge(create func(*Entry) error, merge func() error, e *Entry) (created bool, err error) {
	if createErr := create(e); createErr != nil {
		if !isDuplicate(createErr) {
			return false, errs.Wrap(errs.Internal, "create cart entry", createErr)
		}
		return false, merge()
	}
	return true, nil
}

// moveError maps a failed variant re-point: hitting the unique index
// means the destination variant already has its own cart entry.
func moveError(err error, newVariantID int64) error {
	if isDuplicate(err) {
		return errs.Newf(errs.Conflict, "variant %d is already in the cart", newVariantID)
	}
	return errs.Wrap(errs.Internal, "move cart entry", err)
}

// atomicAdd increments at the storage layer, never read-then-write.
func (r *gormRepository) atomicAdd(tx *gorm.DB, userID, variantID int64, quantity int, out *Entry) error {
	res := tx.Model(&Entry{}).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return errs.Wrap(errs.Internal, "merge cart entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return errEntryNotFound
	}
	if err := tx.Where("user_id = ? AND variant_id = ?", userID, variantID).First(out).Error; err != nil {
		return errs.Wrap(errs.Internal, "reload cart entry", err)
	}
	return nil
}

func (r *gormRepository) SetQuantity(ctx context.Context, userID, variantID int64, quantity int) (*Entry, error) {
	var out Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := lockVariant(tx, variantID)
		if err != nil {
			return err
		}
		if quantity > v.StockQuantity {
			return errs.Newf(errs.OutOfStock, "insufficient stock for variant %d", variantID)
		}

		res := tx.Model(&Entry{}).
			Where("user_id = ? AND variant_id = ?", userID, variantID).
			Update("quantity", quantity)
		if res.Error != nil {
			return errs.Wrap(errs.Internal, "update cart entry", res.Error)
		}
		if res.RowsAffected == 0 {
			return errEntryNotFound
		}
		if err := tx.Where("user_id = ? AND variant_id = ?", userID, variantID).First(&out).Error; err != nil {
			return errs.Wrap(errs.Internal, "reload cart entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gormRepository) Move(ctx context.Context, userID, oldVariantID, newVariantID int64) (*Entry, error) {
	var out Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Entry
		findErr := tx.Where("user_id = ? AND variant_id = ?", userID, oldVariantID).First(&e).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return errEntryNotFound
		}
		if findErr != nil {
			return errs.Wrap(errs.Internal, "find cart entry", findErr)
		}

		v, err := lockVariant(tx, newVariantID)
		if err != nil {
			return err
		}
		if e.Quantity > v.StockQuantity {
			return errs.Newf(errs.OutOfStock, "insufficient stock for variant %d", newVariantID)
		}

		res := tx.Model(&Entry{}).
			Where("id = ?", e.ID).
			Update("variant_id", newVariantID)
		if res.Error != nil {
			return moveError(res.Error, newVariantID)
		}
		if err := tx.Where("id = ?", e.ID).First(&out).Error; err != nil {
			return errs.Wrap(errs.Internal, "reload cart entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gormRepository) Delete(ctx context.Context, userID, variantID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Delete(&Entry{})
	if res.Error != nil {
		return errs.Wrap(errs.Internal, "delete cart entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return errEntryNotFound
	}
	return nil
}
