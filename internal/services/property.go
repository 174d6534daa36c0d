package services

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/policy"

	"gorm.io/gorm"
)

// OwnedPageSize is the fixed page size of the owner's listing index.
const OwnedPageSize = 4

// PropertyInput carries the mutable listing fields in typed form. Handlers
// build it from validated form values; the service never touches Image or
// Published through it.
type PropertyInput struct {
	Title        string
	Description  string
	Bedrooms     int
	Parking      int
	Bathrooms    int
	Street       string
	Lat          float64
	Lng          float64
	PriceRangeID uint
	CategoryID   uint
}

// PropertyService enforces the listing lifecycle: draft on create, published
// exactly once an image is attached, every mutation restricted to the owner.
type PropertyService struct {
	DB        *gorm.DB
	UploadDir string
}

func NewPropertyService(db *gorm.DB, uploadDir string) *PropertyService {
	return &PropertyService{DB: db, UploadDir: uploadDir}
}

// load fetches a listing and applies the ownership rule shared by every
// mutating operation.
func (s *PropertyService) load(id, callerID uint) (*models.Property, error) {
	var p models.Property
	if err := s.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !policy.Owns(callerID, p) {
		return nil, ErrNotOwner
	}
	return &p, nil
}

// Create stores a new listing in the draft state: unpublished, no image,
// owned by the caller.
func (s *PropertyService) Create(ownerID uint, in PropertyInput) (*models.Property, error) {
	p := models.Property{
		Title:        in.Title,
		Description:  in.Description,
		Bedrooms:     in.Bedrooms,
		Parking:      in.Parking,
		Bathrooms:    in.Bathrooms,
		Street:       in.Street,
		Lat:          in.Lat,
		Lng:          in.Lng,
		PriceRangeID: in.PriceRangeID,
		CategoryID:   in.CategoryID,
		UserID:       ownerID,
		Image:        "",
		Published:    false,
	}
	if err := s.DB.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Draft returns the caller's unpublished listing, for the add-image page.
func (s *PropertyService) Draft(id, callerID uint) (*models.Property, error) {
	p, err := s.load(id, callerID)
	if err != nil {
		return nil, err
	}
	if p.Published {
		return nil, ErrAlreadyPublished
	}
	return p, nil
}

// AttachImage records the uploaded filename and publishes the listing. This is
// the sole transition into the published state; a second call is refused, so
// the image can only be attached once.
func (s *PropertyService) AttachImage(id, callerID uint, filename string) (*models.Property, error) {
	p, err := s.load(id, callerID)
	if err != nil {
		return nil, err
	}
	if p.Published {
		return nil, ErrAlreadyPublished
	}
	p.Image = filename
	p.Published = true
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Owner returns the caller's listing regardless of publish state, for the
// edit form.
func (s *PropertyService) Owner(id, callerID uint) (*models.Property, error) {
	return s.load(id, callerID)
}

// Update overwrites the mutable fields. Image and Published are never touched
// here; they only change through AttachImage and SetPublished.
func (s *PropertyService) Update(id, callerID uint, in PropertyInput) (*models.Property, error) {
	p, err := s.load(id, callerID)
	if err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Bedrooms = in.Bedrooms
	p.Parking = in.Parking
	p.Bathrooms = in.Bathrooms
	p.Street = in.Street
	p.Lat = in.Lat
	p.Lng = in.Lng
	p.PriceRangeID = in.PriceRangeID
	p.CategoryID = in.CategoryID
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// SetPublished flips the publish flag. Publishing requires an attached image:
// an imageless listing cannot be made visible through the toggle, matching
// the invariant AttachImage establishes.
func (s *PropertyService) SetPublished(id, callerID uint, value bool) (*models.Property, error) {
	p, err := s.load(id, callerID)
	if err != nil {
		return nil, err
	}
	if value && p.Image == "" {
		return nil, ErrNoImage
	}
	p.Published = value
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the record first, then the stored image. The two phases are
// not transactional: if file removal fails the record stays gone and the
// stray file is logged, never the reverse.
func (s *PropertyService) Delete(id, callerID uint) error {
	p, err := s.load(id, callerID)
	if err != nil {
		return err
	}
	if err := s.DB.Delete(&models.Property{}, p.ID).Error; err != nil {
		return err
	}
	if p.Image != "" {
		path := filepath.Join(s.UploadDir, filepath.Base(p.Image))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("property %d deleted but image %s not removed: %v", p.ID, path, err)
		}
	}
	return nil
}

// Published returns a publicly visible listing with its lookup relations.
// Unpublished listings are not found, regardless of who asks.
func (s *PropertyService) Published(id uint) (*models.Property, error) {
	var p models.Property
	err := s.DB.Preload("Category").Preload("PriceRange").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !p.Published {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Owned returns one 1-based page of the owner's listings plus the total count.
func (s *PropertyService) Owned(ownerID uint, page int) ([]models.Property, int64, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * OwnedPageSize
	var total int64
	if err := s.DB.Model(&models.Property{}).Where("user_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var props []models.Property
	err := s.DB.Where("user_id = ?", ownerID).
		Preload("Category").
		Preload("PriceRange").
		Preload("Messages").
		Order("id desc").
		Limit(OwnedPageSize).
		Offset(offset).
		Find(&props).Error
	if err != nil {
		return nil, 0, err
	}
	return props, total, nil
}

// Latest returns the most recent published listings for a category, newest
// first, for the public home page.
func (s *PropertyService) Latest(categoryID uint, limit int) ([]models.Property, error) {
	var props []models.Property
	q := s.DB.Where("published = ?", true).
		Preload("Category").
		Preload("PriceRange").
		Order("created_at desc")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

// Search returns published listings whose title or description matches the term.
func (s *PropertyService) Search(term string) ([]models.Property, error) {
	like := "%" + term + "%"
	var props []models.Property
	err := s.DB.Where("published = ?", true).
		Where("title LIKE ? OR description LIKE ?", like, like).
		Preload("Category").
		Preload("PriceRange").
		Order("created_at desc").
		Find(&props).Error
	if err != nil {
		return nil, err
	}
	return props, nil
}
