package entity

// DoctorFilter is a domain-level filter for searching the doctor directory.
// Used by repository layer to avoid coupling with delivery DTOs.
// Nil pointers mean "no constraint".
type DoctorFilter struct {
	Query         string // first/last name, case-insensitive substring
	Specialty     string // exact membership
	City          string // case-insensitive substring
	State         string // case-insensitive substring
	MinRating     *float64
	IsActive      *bool
	EmailVerified *bool
}

// DoctorStatistics aggregates the directory.
type DoctorStatistics struct {
	Total           int64            `json:"total"`
	Active          int64            `json:"active"`
	Verified        int64            `json:"verified"`
	AverageRating   float64          `json:"average_rating"`
	SpecialtyCounts []SpecialtyCount `json:"specialty_counts"`
}

type SpecialtyCount struct {
	Specialty string `json:"specialty"`
	Count     int64  `json:"count"`
}
