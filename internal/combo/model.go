package combo

import "time"

// Combo lifecycle is a soft flag: a combo referenced by an active cart
// is never hard-deleted.
const (
	StatusActive  = "ACTIVE"
	StatusDeleted = "DELETED"
)

// Combo bundles a main variant with discounted accompanying items.
// OriginalPrice and Price are derived at write time from catalog prices
// current at that moment.
type Combo struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(255)" json:"name"`
	Slug          string     `gorm:"type:varchar(255);index" json:"slug"`
	Description   string     `gorm:"type:text" json:"description"`
	MainVariantID int64      `gorm:"index;not null" json:"main_variant_id"`
	OriginalPrice int64      `gorm:"not null" json:"original_price"`
	Price         int64      `gorm:"not null" json:"price"`
	Status        string     `gorm:"type:varchar(16);index;default:ACTIVE" json:"status"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Items         []Item     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Combo) TableName() string { return "combos" }

// Item is one accompanying variant with its own discount.
type Item struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	ComboID      int64   `gorm:"index;not null" json:"combo_id"`
	VariantID    int64   `gorm:"index;not null" json:"variant_id"`
	Quantity     int     `gorm:"not null;default:1" json:"quantity"`
	Discount     float64 `gorm:"not null;default:0" json:"discount"`
	DiscountType string  `gorm:"type:varchar(16);not null" json:"discount_type"`
}

func (Item) TableName() string { return "combo_items" }

// Detail is the priced projection served to clients.
type Detail struct {
	Combo        Combo           `json:"combo"`
	MainVariant  MainVariantInfo `json:"main_variant"`
	Groups       []CategoryGroup `json:"groups"`
	TotalSavings int64           `json:"total_savings"`
}

type MainVariantInfo struct {
	VariantID       int64   `json:"variant_id"`
	ProductName     string  `json:"product_name"`
	SKU             string  `json:"sku"`
	OriginalPrice   int64   `json:"original_price"`
	FinalPrice      int64   `json:"final_price"`
	DiscountPercent float64 `json:"discount_percent"`
}

// CategoryGroup collects accompanying items by category for
// presentation. Groups and their items keep insertion order, and the
// first item of each group is the pre-selected default, so UI selection
// stays deterministic.
type CategoryGroup struct {
	CategoryID       int64        `json:"category_id"`
	DefaultVariantID int64        `json:"default_variant_id"`
	Items            []ItemDetail `json:"items"`
}

type ItemDetail struct {
	VariantID    int64   `json:"variant_id"`
	ProductName  string  `json:"product_name"`
	SKU          string  `json:"sku"`
	CategoryID   int64   `json:"category_id"`
	Quantity     int     `json:"quantity"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discount_type"`
	UnitPrice    int64   `json:"unit_price"`
	LinePrice    int64   `json:"line_price"`
	Contribution int64   `json:"contribution"`
}
