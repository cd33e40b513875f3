package models

import (
	"strings"
	"time"
)

// Partner is an organization the school works with (internships, juries, visits).
type Partner struct {
	ID             uint      `gorm:"primaryKey"`
	CompanyName    string    `gorm:"column:company_name;not null" validate:"required"`
	Address        string    `gorm:"column:address"`
	Number         string    `gorm:"column:number"` // street number, kept as text ("12b")
	PostalCode     string    `gorm:"column:postal_code"`
	City           string    `gorm:"column:city"`
	Phone          string    `gorm:"column:phone"`
	EmployeesCount int       `gorm:"column:employees_count" validate:"gte=0"`
	Website        string    `gorm:"column:website"`
	Responsible    string    `gorm:"column:responsible"` // main contact person
	Role           string    `gorm:"column:role"`        // function of the responsible
	Email          string    `gorm:"column:email"`
	Activity       string    `gorm:"column:activity"`
	SectorClass    string    `gorm:"column:sector_class"`
	Tags           string    `gorm:"column:tags"` // comma-separated free text
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Partner) TableName() string { return "partners" }

// TagList splits Tags on commas, dropping blanks.
func (p Partner) TagList() []string {
	var out []string
	for _, tag := range strings.Split(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
