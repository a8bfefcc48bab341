package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorProfile represents doctor-specific profile data.
// The doctor id exposed by the directory is the owning user's id.
type DoctorProfile struct {
	UserID               uuid.UUID           `gorm:"type:uuid;primaryKey" json:"user_id"`
	MedicalLicense       string              `gorm:"type:varchar(100);uniqueIndex;not null" json:"medical_license"`
	Bio                  string              `gorm:"type:text" json:"bio,omitempty"`
	Location             DoctorLocation      `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	AvailabilityTimezone string              `gorm:"type:varchar(64);not null" json:"availability_timezone"`
	Rating               float64             `gorm:"not null;index" json:"rating"`
	ReviewCount          int                 `gorm:"not null" json:"review_count"`
	ConsultationFee      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"consultation_fee"`
	Languages            []string            `gorm:"type:text;serializer:json" json:"languages"`
	CreatedAt            time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User         User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Specialties  []DoctorSpecialty    `gorm:"foreignKey:DoctorID;references:UserID" json:"specialties,omitempty"`
	Availability []DoctorAvailability `gorm:"foreignKey:DoctorID;references:UserID" json:"availability,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// DoctorLocation is stored inline on doctor_profiles with a location_ prefix
type DoctorLocation struct {
	Address    string   `gorm:"type:text" json:"address,omitempty"`
	City       string   `gorm:"type:varchar(100);index" json:"city,omitempty"`
	State      string   `gorm:"type:varchar(100);index" json:"state,omitempty"`
	Country    string   `gorm:"type:varchar(100)" json:"country,omitempty"`
	PostalCode string   `gorm:"type:varchar(20)" json:"postal_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// SpecialtyNames returns the specialties in their stored order
func (d *DoctorProfile) SpecialtyNames() []string {
	names := make([]string, 0, len(d.Specialties))
	for _, s := range d.Specialties {
		names = append(names, s.Specialty)
	}
	return names
}

// Default values applied when a profile is admitted without them
const (
	DefaultCountry  = "US"
	DefaultTimezone = "UTC"
	DefaultLanguage = "en"
	MaxRating       = 5.0
)
