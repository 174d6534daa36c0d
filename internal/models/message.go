package models

import "time"

// Message is an inquiry sent by a prospective buyer to a listing owner.
// Rows are append-only: no exposed operation mutates or deletes them.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Body       string    `gorm:"not null" json:"body"`
	PropertyID uint      `gorm:"not null;index" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"-"` // sender
	Sender     User      `gorm:"foreignKey:UserID" json:"sender"`
	CreatedAt  time.Time `json:"created_at"`
}
