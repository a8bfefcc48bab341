package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender values accepted on a user profile
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// User represents the centralized authentication table
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID        int        `gorm:"not null;index" json:"role_id"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"type:text;not null" json:"-"`
	FirstName     string     `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName      string     `gorm:"type:varchar(50);not null" json:"last_name"`
	Phone         *string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	DateOfBirth   *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender        *string    `gorm:"type:varchar(20)" json:"gender,omitempty"`
	AvatarURL     *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	IsActive      bool       `gorm:"not null;index" json:"is_active"`
	EmailVerified bool       `gorm:"not null;index" json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role          Role           `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile *DoctorProfile `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
