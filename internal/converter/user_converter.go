package converter

import (
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// UserToResponse converts a User entity to UserResponse DTO.
// The role name falls back to the seeded role ids when Role is not preloaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	role := user.Role.RoleName
	if role == "" {
		role = entity.RoleNameByID(user.RoleID)
	}

	response := &dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		FullName:      user.FullName(),
		Role:          role,
		Phone:         user.Phone,
		Gender:        user.Gender,
		AvatarURL:     user.AvatarURL,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}

	if user.DateOfBirth != nil {
		dob := user.DateOfBirth.Format(dateLayout)
		response.DateOfBirth = &dob
	}

	return response
}

// UserToParticipant converts a User entity to its public participant view
func UserToParticipant(user *entity.User) *dto.ParticipantResponse {
	if user == nil {
		return nil
	}

	return &dto.ParticipantResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		AvatarURL: user.AvatarURL,
	}
}
