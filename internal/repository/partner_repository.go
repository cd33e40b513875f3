package repository

import (
	"errors"
	"strings"

	"github.com/AlessLeS/ism-partners-db/internal/models"

	"gorm.io/gorm"
)

// partnerColumns are written on every update. created_at is not in the list:
// it is set once at insert.
var partnerColumns = []string{
	"company_name", "address", "number", "postal_code", "city", "phone",
	"employees_count", "website", "responsible", "role", "email",
	"activity", "sector_class", "tags",
}

// PartnerFilter narrows List. Empty fields are ignored; matching is a
// case-insensitive substring match.
type PartnerFilter struct {
	Query  string // company name, activity, responsible, city or tags
	City   string
	Sector string
}

type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create inserts p and fills its ID and CreatedAt.
func (r *PartnerRepository) Create(p *models.Partner) error {
	if err := check(p); err != nil {
		return err
	}
	p.ID = 0
	return r.db.Create(p).Error
}

func (r *PartnerRepository) FindByID(id uint) (*models.Partner, error) {
	var p models.Partner
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepository) List(f PartnerFilter) ([]models.Partner, error) {
	q := r.db.Model(&models.Partner{})

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(company_name) LIKE ? OR LOWER(activity) LIKE ? OR LOWER(responsible) LIKE ? OR LOWER(city) LIKE ? OR LOWER(tags) LIKE ?",
			like, like, like, like, like,
		)
	}
	if s := strings.TrimSpace(f.City); s != "" {
		q = q.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if s := strings.TrimSpace(f.Sector); s != "" {
		q = q.Where("LOWER(sector_class) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var partners []models.Partner
	err := q.Order("LOWER(company_name) asc").Order("id asc").Find(&partners).Error
	return partners, err
}

func (r *PartnerRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Partner{}).Count(&n).Error
	return n, err
}

// Update replaces every editable field of the stored partner with p's values.
func (r *PartnerRepository) Update(p *models.Partner) error {
	if p.ID == 0 {
		return ErrNotFound
	}
	if err := check(p); err != nil {
		return err
	}

	res := r.db.Model(p).
		Select(partnerColumns).
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the partner and its contacts in one transaction. Contacts are
// deleted explicitly so the cascade holds even on a connection without
// foreign key enforcement.
func (r *PartnerRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("partner_id = ?", id).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Partner{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
