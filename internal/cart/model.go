package cart

import "time"

// Entry is one cart line. The unique index on (user_id, variant_id) is
// the primary concurrency guard: a racing create degrades into a
// constraint violation that the repository converts into a merge.
type Entry struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:uni_user_variant;not null" json:"user_id"`
	VariantID int64     `gorm:"uniqueIndex:uni_user_variant;not null" json:"variant_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entry) TableName() string { return "cart_entries" }

// Line is the priced projection of an Entry returned to clients.
type Line struct {
	VariantID         int64   `json:"variant_id"`
	ProductID         int64   `json:"product_id"`
	ProductName       string  `json:"product_name"`
	SKU               string  `json:"sku"`
	ThumbnailURL      string  `json:"thumbnail_url"`
	Quantity          int     `json:"quantity"`
	OriginalUnitPrice int64   `json:"original_unit_price"`
	UnitPrice         int64   `json:"unit_price"`
	DiscountPercent   float64 `json:"discount_percent"`
	LineTotal         int64   `json:"line_total"`
}
