package models

import "time"

type Contact struct {
	ID        uint     `gorm:"primaryKey"`
	PartnerID uint     `gorm:"column:partner_id;not null;index"`
	Partner   *Partner `gorm:"constraint:OnDelete:CASCADE;"`

	FullName  string    `gorm:"column:full_name;not null" validate:"required"`
	Function  string    `gorm:"column:function"`
	Email     string    `gorm:"column:email"`
	Phone     string    `gorm:"column:phone"`
	Mobile    string    `gorm:"column:mobile"`
	IsJury    bool      `gorm:"column:is_jury;default:false"` // sits on exam juries
	Notes     string    `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Contact) TableName() string { return "contacts" }
