package converter

import (
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO.
// The profile is expected to carry its User, Specialties and Availability.
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	languages := profile.Languages
	if languages == nil {
		languages = []string{}
	}

	availability := make([]dto.AvailabilityResponse, len(profile.Availability))
	for i, slot := range profile.Availability {
		availability[i] = dto.AvailabilityResponse{
			DayOfWeek:   slot.DayOfWeek,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			IsAvailable: slot.IsAvailable,
		}
	}

	return &dto.DoctorResponse{
		ID:          profile.UserID,
		FirstName:   profile.User.FirstName,
		LastName:    profile.User.LastName,
		FullName:    profile.User.FullName(),
		AvatarURL:   profile.User.AvatarURL,
		Specialties: profile.SpecialtyNames(),
		Bio:         profile.Bio,
		Location: dto.DoctorLocationResponse{
			Address:    profile.Location.Address,
			City:       profile.Location.City,
			State:      profile.Location.State,
			Country:    profile.Location.Country,
			PostalCode: profile.Location.PostalCode,
			Latitude:   profile.Location.Latitude,
			Longitude:  profile.Location.Longitude,
		},
		AvailabilityTimezone: profile.AvailabilityTimezone,
		Availability:         availability,
		Rating:               profile.Rating,
		ReviewCount:          profile.ReviewCount,
		ConsultationFee:      profile.ConsultationFee,
		Languages:            languages,
		IsActive:             profile.User.IsActive,
		EmailVerified:        profile.User.EmailVerified,
		CreatedAt:            profile.CreatedAt,
		UpdatedAt:            profile.UpdatedAt,
	}
}

// DoctorProfilesToResponses converts a slice of DoctorProfile entities to slice of DoctorResponse DTOs
func DoctorProfilesToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i := range profiles {
		responses[i] = *DoctorProfileToResponse(&profiles[i])
	}
	return responses
}

// DoctorStatisticsToResponse converts directory aggregates to their DTO
func DoctorStatisticsToResponse(stats *entity.DoctorStatistics) *dto.DoctorStatisticsResponse {
	if stats == nil {
		return nil
	}

	counts := make([]dto.SpecialtyCountResponse, len(stats.SpecialtyCounts))
	for i, c := range stats.SpecialtyCounts {
		counts[i] = dto.SpecialtyCountResponse{
			Specialty: c.Specialty,
			Count:     c.Count,
		}
	}

	return &dto.DoctorStatisticsResponse{
		Total:           stats.Total,
		Active:          stats.Active,
		Verified:        stats.Verified,
		AverageRating:   stats.AverageRating,
		SpecialtyCounts: counts,
	}
}
