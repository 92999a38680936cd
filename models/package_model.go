package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Package is a photography package clients book. Prices are stored in minor
// currency units; edits never change the pricing snapshot frozen into existing
// bookings.
type Package struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Category          string    `gorm:"size:100;not null" json:"category"`
	Description       string    `gorm:"type:text" json:"description"`
	PriceCents        int64     `gorm:"not null" json:"price_cents"`
	DepositPercentage int       `gorm:"not null" json:"deposit_percentage"`
	MaxBookingsPerDay int       `gorm:"not null;default:1" json:"max_bookings_per_day"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
