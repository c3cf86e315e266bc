package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Variant lifecycle states. DELETED variants are invisible to every
// pricing and cart read.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusDeleted  = "DELETED"
)

type Brand struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100)" json:"name"`
	Slug string `gorm:"type:varchar(120);uniqueIndex" json:"slug"`
}

type Category struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100)" json:"name"`
	Slug string `gorm:"type:varchar(120);uniqueIndex" json:"slug"`
}

type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	BasePrice   int64     `gorm:"not null" json:"base_price"`
	BrandID     int64     `gorm:"index" json:"brand_id"`
	CategoryID  int64     `gorm:"index" json:"category_id"`
	Variants    []Variant `json:"variants,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variant is a purchasable SKU. Its price is the product base price
// plus PriceModifier, discounted by Discount percent.
type Variant struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	ProductID      int64          `gorm:"index;not null" json:"product_id"`
	Product        *Product       `json:"product,omitempty"`
	SKU            string         `gorm:"type:varchar(64);uniqueIndex" json:"sku"`
	PriceModifier  int64          `gorm:"not null;default:0" json:"price_modifier"`
	Discount       float64        `gorm:"not null;default:0" json:"discount"`
	StockQuantity  int            `gorm:"not null;default:0" json:"stock_quantity"`
	Status         string         `gorm:"type:varchar(16);index;default:ACTIVE" json:"status"`
	IsDefault      bool           `gorm:"not null;default:false" json:"is_default"`
	ThumbnailURL   string         `gorm:"type:varchar(255)" json:"thumbnail_url"`
	TechnicalSpecs string         `gorm:"type:json" json:"technical_specs"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TechnicalSpecs JSON shape: {"specs":[{"key":"weight","value":"1.2 kg"}]}.
type SpecEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type TechnicalSpecs struct {
	Specs []SpecEntry `json:"specs"`
}
