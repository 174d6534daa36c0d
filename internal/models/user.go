package models

import "time"

// User & account models
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"unique;not null;index" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash, never serialized
	// Confirmed gates authentication: unconfirmed accounts cannot log in.
	Confirmed bool `gorm:"not null;default:false" json:"-"`
	// Token is the single outstanding one-time credential. It serves both
	// account confirmation and password reset and is cleared once consumed.
	Token     *string `gorm:"index" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
