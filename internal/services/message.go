package services

import (
	"errors"

	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/policy"

	"gorm.io/gorm"
)

// MessageService is the append-only inquiry mailbox tied to a listing.
type MessageService struct {
	DB *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService { return &MessageService{DB: db} }

// Post appends an inquiry to a listing's mailbox. Any authenticated user may
// post; the listing must exist.
func (s *MessageService) Post(propertyID, senderID uint, body string) error {
	var p models.Property
	if err := s.DB.Select("id").First(&p, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	m := models.Message{Body: body, PropertyID: propertyID, UserID: senderID}
	return s.DB.Create(&m).Error
}

// ForProperty returns every inquiry for a listing, sender included. Only the
// listing owner may read the mailbox, and the sender projection never carries
// the password column.
func (s *MessageService) ForProperty(propertyID, callerID uint) ([]models.Message, error) {
	var p models.Property
	if err := s.DB.First(&p, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !policy.Owns(callerID, p) {
		return nil, ErrNotOwner
	}
	var msgs []models.Message
	err := s.DB.Where("property_id = ?", propertyID).
		Preload("Sender", func(db *gorm.DB) *gorm.DB {
			// password stays out of the joined sender row
			return db.Select("id", "name", "email")
		}).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
