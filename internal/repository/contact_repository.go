package repository

import (
	"errors"

	"github.com/AlessLeS/ism-partners-db/internal/models"

	"gorm.io/gorm"
)

var contactColumns = []string{"full_name", "function", "email", "phone", "mobile", "is_jury", "notes"}

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts c. The partner is not looked up first: the foreign key
// refuses unknown partners where it is enforced.
func (r *ContactRepository) Create(c *models.Contact) error {
	c.ID = 0
	c.Partner = nil
	if err := check(c); err != nil {
		return err
	}
	return r.db.Create(c).Error
}

func (r *ContactRepository) FindByID(id uint) (*models.Contact, error) {
	var c models.Contact
	err := r.db.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListByPartner(partnerID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.Where("partner_id = ?", partnerID).
		Order("LOWER(full_name) asc").
		Order("id asc").
		Find(&contacts).Error
	return contacts, err
}

// Update replaces the editable fields. The owning partner never changes.
func (r *ContactRepository) Update(c *models.Contact) error {
	if c.ID == 0 {
		return ErrNotFound
	}
	if err := check(c); err != nil {
		return err
	}

	res := r.db.Model(c).
		Select(contactColumns).
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Contact{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
