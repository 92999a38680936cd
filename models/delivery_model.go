package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery is the finished photo gallery handed to the client. A booking has
// at most one delivery; the photo list is append-only and the counters are
// approximate.
type Delivery struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;unique" json:"booking_id"`

	AlbumName string     `gorm:"size:255;not null" json:"album_name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	IsPublic         bool    `gorm:"not null;default:false" json:"is_public"`
	PasswordHash     *string `gorm:"size:255" json:"-"`
	AllowDownload    bool    `gorm:"not null;default:true" json:"allow_download"`
	WatermarkEnabled bool    `gorm:"not null;default:false" json:"watermark_enabled"`

	ViewCount     int64 `gorm:"not null;default:0" json:"view_count"`
	DownloadCount int64 `gorm:"not null;default:0" json:"download_count"`

	Photos  []DeliveryPhoto `gorm:"foreignkey:DeliveryID;constraint:OnDelete:CASCADE" json:"photos"`
	Booking Booking         `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Delivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type DeliveryPhoto struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DeliveryID uuid.UUID `gorm:"type:uuid;not null;index" json:"delivery_id"`
	Position   int       `gorm:"not null" json:"position"`
	AssetURL   string    `gorm:"size:512;not null" json:"asset_url"`
	PublicID   string    `gorm:"size:255;not null" json:"public_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *DeliveryPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
