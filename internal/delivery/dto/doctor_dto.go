package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// DoctorSearchQuery is parsed from the query string of GET /doctors.
// Nil pointers mean the parameter was absent.
type DoctorSearchQuery struct {
	Query     string   `json:"q" validate:"omitempty,max=100"`
	Specialty string   `json:"specialty" validate:"omitempty,max=100"`
	City      string   `json:"city" validate:"omitempty,max=100"`
	State     string   `json:"state" validate:"omitempty,max=100"`
	MinRating *float64 `json:"minRating" validate:"omitempty,gte=0,lte=5"`
	Page      *int     `json:"page" validate:"omitempty,gte=1"`
	Limit     *int     `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// AdminDoctorSearchQuery may also look at inactive or unverified doctors
type AdminDoctorSearchQuery struct {
	DoctorSearchQuery
	IsActive      *bool `json:"isActive"`
	EmailVerified *bool `json:"emailVerified"`
}

type TopRatedQuery struct {
	Limit     *int     `json:"limit" validate:"omitempty,gte=1,lte=50"`
	MinRating *float64 `json:"minRating" validate:"omitempty,gte=0,lte=5"`
}

// Response DTOs

type DoctorLocationResponse struct {
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Country    string   `json:"country,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type AvailabilityResponse struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type DoctorResponse struct {
	ID                   uuid.UUID              `json:"id"`
	FirstName            string                 `json:"first_name"`
	LastName             string                 `json:"last_name"`
	FullName             string                 `json:"full_name"`
	AvatarURL            *string                `json:"avatar_url,omitempty"`
	Specialties          []string               `json:"specialties"`
	Bio                  string                 `json:"bio,omitempty"`
	Location             DoctorLocationResponse `json:"location"`
	AvailabilityTimezone string                 `json:"availability_timezone"`
	Availability         []AvailabilityResponse `json:"availability"`
	Rating               float64                `json:"rating"`
	ReviewCount          int                    `json:"review_count"`
	ConsultationFee      decimal.NullDecimal    `json:"consultation_fee"`
	Languages            []string               `json:"languages"`
	IsActive             bool                   `json:"is_active"`
	EmailVerified        bool                   `json:"email_verified"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// DoctorSearchResponse is one page of the directory
type DoctorSearchResponse struct {
	Doctors    []DoctorResponse `json:"doctors"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

type SpecialtyCountResponse struct {
	Specialty string `json:"specialty"`
	Count     int64  `json:"count"`
}

type DoctorStatisticsResponse struct {
	Total           int64                    `json:"total"`
	Active          int64                    `json:"active"`
	Verified        int64                    `json:"verified"`
	AverageRating   float64                  `json:"average_rating"`
	SpecialtyCounts []SpecialtyCountResponse `json:"specialty_counts"`
}
