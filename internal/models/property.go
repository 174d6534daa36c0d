package models

import "time"

// Property domain models
type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;unique" json:"name"` // ex: House, Apartment, Warehouse
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type PriceRange struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;unique" json:"name"` // ex: "$100,000 - $200,000"
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Property struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:100;not null" json:"title"`
	Description string  `gorm:"not null" json:"description"`
	Bedrooms    int     `gorm:"not null" json:"bedrooms"`
	Parking     int     `gorm:"not null" json:"parking"`
	Bathrooms   int     `gorm:"not null" json:"bathrooms"`
	Street      string  `gorm:"size:60;not null" json:"street"`
	Lat         float64 `gorm:"not null" json:"lat"`
	Lng         float64 `gorm:"not null" json:"lng"`
	// Image is the stored upload filename; empty until the upload step.
	Image string `gorm:"size:60" json:"image"`
	// Published listings are publicly visible. The upload step is the sole
	// transition from the initial draft into the published state.
	Published    bool       `gorm:"not null;default:false" json:"published"`
	UserID       uint       `gorm:"not null;index" json:"-"` // owner
	User         User       `gorm:"foreignKey:UserID" json:"-"`
	PriceRangeID uint       `gorm:"not null" json:"-"`
	PriceRange   PriceRange `gorm:"foreignKey:PriceRangeID" json:"price_range"`
	CategoryID   uint       `gorm:"not null" json:"-"`
	Category     Category   `gorm:"foreignKey:CategoryID" json:"category"`
	// Inquiries ride on the listing: deleting it deletes its mailbox.
	Messages []Message `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"-"`
}

// GetUserID implements policy.Ownable.
func (p Property) GetUserID() uint { return p.UserID }
