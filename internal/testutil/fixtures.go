package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture user.
const Password = "password123"

var (
	hashOnce   sync.Once
	hashed     string
	fixtureSeq atomic.Int64
)

func passwordHash(t *testing.T) string {
	hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		require.NoError(t, err)
		hashed = string(h)
	})
	return hashed
}

func nextSeq() int64 {
	return fixtureSeq.Add(1)
}

// CreateUser inserts an active, verified user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, roleID int) *entity.User {
	t.Helper()

	n := nextSeq()
	user := &entity.User{
		RoleID:        roleID,
		Email:         fmt.Sprintf("%s%d@example.com", entity.RoleNameByID(roleID), n),
		Password:      passwordHash(t),
		FirstName:     "User",
		LastName:      fmt.Sprintf("No%d", n),
		IsActive:      true,
		EmailVerified: true,
	}
	require.NoError(t, db.Omit("Role", "DoctorProfile").Create(user).Error)
	return user
}

func CreatePatient(t *testing.T, db *gorm.DB) *entity.User {
	return CreateUser(t, db, entity.RoleIDPatient)
}

func CreateAdmin(t *testing.T, db *gorm.DB) *entity.User {
	return CreateUser(t, db, entity.RoleIDAdmin)
}

// DoctorOption adjusts a doctor fixture before it is inserted.
type DoctorOption func(*entity.DoctorProfile)

func WithName(first, last string) DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.User.FirstName = first
		p.User.LastName = last
	}
}

func WithRating(rating float64, reviews int) DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.Rating = rating
		p.ReviewCount = reviews
	}
}

func WithSpecialties(specialties ...string) DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.Specialties = nil
		for i, s := range specialties {
			p.Specialties = append(p.Specialties, entity.DoctorSpecialty{Specialty: s, Position: i})
		}
	}
}

func WithLocation(city, state string) DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.Location.City = city
		p.Location.State = state
	}
}

func WithCreatedAt(at time.Time) DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.CreatedAt = at
	}
}

func Inactive() DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.User.IsActive = false
	}
}

func Unverified() DoctorOption {
	return func(p *entity.DoctorProfile) {
		p.User.EmailVerified = false
	}
}

// CreateDoctor inserts a doctor user and profile. Defaults: active, verified,
// rating 4.0 with 10 reviews, one "general_practice" specialty.
func CreateDoctor(t *testing.T, db *gorm.DB, opts ...DoctorOption) *entity.DoctorProfile {
	t.Helper()

	n := nextSeq()
	profile := &entity.DoctorProfile{
		MedicalLicense:       fmt.Sprintf("MD%06d", n),
		Location:             entity.DoctorLocation{City: "Springfield", State: "IL", Country: entity.DefaultCountry},
		AvailabilityTimezone: entity.DefaultTimezone,
		Rating:               4.0,
		ReviewCount:          10,
		Languages:            []string{entity.DefaultLanguage},
		Specialties:          []entity.DoctorSpecialty{{Specialty: "general_practice"}},
		User: entity.User{
			RoleID:        entity.RoleIDDoctor,
			Email:         fmt.Sprintf("doctor%d@example.com", n),
			Password:      passwordHash(t),
			FirstName:     "Doc",
			LastName:      fmt.Sprintf("No%d", n),
			IsActive:      true,
			EmailVerified: true,
		},
	}
	for _, opt := range opts {
		opt(profile)
	}

	user := profile.User
	require.NoError(t, db.Omit("Role", "DoctorProfile").Create(&user).Error)

	profile.UserID = user.ID
	require.NoError(t, db.Omit("User").Create(profile).Error)
	profile.User = user
	return profile
}

// CreateSubscription inserts a subscription in the given status.
func CreateSubscription(t *testing.T, db *gorm.DB, patientID, doctorID uuid.UUID, status entity.SubscriptionStatus) *entity.Subscription {
	t.Helper()

	now := time.Now().UTC()
	subscription := &entity.Subscription{
		PatientID:   patientID,
		DoctorID:    doctorID,
		Status:      status,
		RequestedAt: now,
		IsActive:    status == entity.SubscriptionStatusRequested || status == entity.SubscriptionStatusApproved,
	}
	require.NoError(t, db.Omit("Patient", "Doctor").Create(subscription).Error)
	return subscription
}

// Identity builds the session identity of user.
func Identity(user *entity.User) entity.Identity {
	return entity.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    entity.RoleNameByID(user.RoleID),
		TokenID: uuid.NewString(),
	}
}
