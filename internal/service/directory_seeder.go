package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/domain/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile is the YAML fixture used to admit accounts and doctors into the directory.
type SeedFile struct {
	Admins  []AccountSeed `yaml:"admins"`
	Doctors []DoctorSeed  `yaml:"doctors"`
}

type AccountSeed struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone,omitempty"`
	Gender    string `yaml:"gender,omitempty"`
}

type DoctorSeed struct {
	AccountSeed `yaml:",inline"`

	MedicalLicense  string             `yaml:"medical_license"`
	Specialties     []string           `yaml:"specialties"`
	Bio             string             `yaml:"bio,omitempty"`
	Location        LocationSeed       `yaml:"location"`
	Timezone        string             `yaml:"timezone,omitempty"`
	Schedule        []AvailabilitySeed `yaml:"schedule,omitempty"`
	Rating          float64            `yaml:"rating"`
	ReviewCount     int                `yaml:"review_count"`
	ConsultationFee string             `yaml:"consultation_fee,omitempty"`
	Languages       []string           `yaml:"languages,omitempty"`
	IsActive        *bool              `yaml:"is_active,omitempty"`
	EmailVerified   *bool              `yaml:"email_verified,omitempty"`
}

type LocationSeed struct {
	Address    string   `yaml:"address,omitempty"`
	City       string   `yaml:"city,omitempty"`
	State      string   `yaml:"state,omitempty"`
	Country    string   `yaml:"country,omitempty"`
	PostalCode string   `yaml:"postal_code,omitempty"`
	Latitude   *float64 `yaml:"latitude,omitempty"`
	Longitude  *float64 `yaml:"longitude,omitempty"`
}

type AvailabilitySeed struct {
	Day         string `yaml:"day"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time"`
	IsAvailable *bool  `yaml:"is_available,omitempty"`
}

// SeedResult counts what a seed run did. Accounts whose email already
// exists are skipped, which makes re-running a fixture harmless.
type SeedResult struct {
	Created int
	Skipped int
}

var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// LoadSeedFile reads and strictly parses a seed fixture.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file SeedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range file.Doctors {
		if err := validateDoctorSeed(&file.Doctors[i]); err != nil {
			return nil, fmt.Errorf("invalid doctor #%d: %w", i+1, err)
		}
	}

	return &file, nil
}

func validateDoctorSeed(d *DoctorSeed) error {
	if d.Email == "" || d.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	if d.MedicalLicense == "" {
		return fmt.Errorf("medical_license is required")
	}
	if len(d.Specialties) == 0 {
		return fmt.Errorf("at least one specialty is required")
	}
	if d.Rating < 0 || d.Rating > entity.MaxRating {
		return fmt.Errorf("rating must be between 0 and %.0f", entity.MaxRating)
	}
	if d.ReviewCount < 0 {
		return fmt.Errorf("review_count must not be negative")
	}
	if d.ConsultationFee != "" {
		if _, err := decimal.NewFromString(d.ConsultationFee); err != nil {
			return fmt.Errorf("consultation_fee: %w", err)
		}
	}
	for _, slot := range d.Schedule {
		if _, ok := weekdays[strings.ToLower(slot.Day)]; !ok {
			return fmt.Errorf("unknown schedule day %q", slot.Day)
		}
	}
	return nil
}

// DirectorySeeder admits seed accounts, one transaction per account.
type DirectorySeeder struct {
	db           *gorm.DB
	log          *logrus.Logger
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	doctorRepo   repository.DoctorProfileRepository
	auditService AuditService
}

func NewDirectorySeeder(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	doctorRepo repository.DoctorProfileRepository,
	auditService AuditService,
) *DirectorySeeder {
	return &DirectorySeeder{
		db:           db,
		log:          log,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (s *DirectorySeeder) Seed(ctx context.Context, file *SeedFile) (*SeedResult, error) {
	result := &SeedResult{}

	for i := range file.Admins {
		admin := &file.Admins[i]
		created, err := s.admit(ctx, newSeedUser(admin), admin.Password, entity.RoleAdmin, entity.AuditActionUserRegister, nil)
		if err != nil {
			return result, err
		}
		result.count(created)
	}

	for i := range file.Doctors {
		doctor := &file.Doctors[i]
		if err := validateDoctorSeed(doctor); err != nil {
			return result, fmt.Errorf("invalid doctor %s: %w", doctor.Email, err)
		}
		user := newSeedUser(&doctor.AccountSeed)
		if doctor.IsActive != nil {
			user.IsActive = *doctor.IsActive
		}
		if doctor.EmailVerified != nil {
			user.EmailVerified = *doctor.EmailVerified
		}

		created, err := s.admit(ctx, user, doctor.Password, entity.RoleDoctor, entity.AuditActionDoctorAdmit, func(tx *gorm.DB) error {
			return s.doctorRepo.Create(tx, doctorProfileFromSeed(user, doctor))
		})
		if err != nil {
			return result, err
		}
		result.count(created)
	}

	s.log.Infof("Seed completed: created=%d, skipped=%d", result.Created, result.Skipped)
	return result, nil
}

func (r *SeedResult) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Skipped++
	}
}

// admit creates user with the named role, plus whatever withProfile adds,
// unless the email is already taken.
func (s *DirectorySeeder) admit(ctx context.Context, user *entity.User, password, roleName, action string, withProfile func(tx *gorm.DB) error) (bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := s.userRepo.FindByEmail(tx, user.Email)
	if err != nil {
		s.log.Warnf("Failed to find user by email: %+v", err)
		return false, err
	}
	if existing != nil {
		s.log.Debugf("Seed account %s already exists, skipping", user.Email)
		return false, nil
	}

	role, err := s.roleRepo.FindByName(tx, roleName)
	if err != nil {
		s.log.Warnf("Failed to find role %s: %+v", roleName, err)
		return false, err
	}
	if role == nil {
		return false, fmt.Errorf("role %q is not seeded, run migrations first", roleName)
	}
	user.RoleID = role.ID

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Warnf("Failed to hash password: %+v", err)
		return false, err
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(tx, user); err != nil {
		s.log.Warnf("Failed to create user: %+v", err)
		return false, err
	}

	if withProfile != nil {
		if err := withProfile(tx); err != nil {
			s.log.Warnf("Failed to create doctor profile: %+v", err)
			return false, err
		}
	}

	if err := s.auditService.LogCreate(ctx, tx, nil, action, entity.AuditEntityUser, user.ID.String(),
		map[string]interface{}{"email": user.Email, "role": roleName},
	); err != nil {
		return false, err
	}

	if err := tx.Commit().Error; err != nil {
		s.log.Warnf("Failed commit transaction: %+v", err)
		return false, err
	}

	s.log.Infof("Seeded %s account %s", roleName, user.Email)
	return true, nil
}

func newSeedUser(account *AccountSeed) *entity.User {
	return &entity.User{
		Email:         strings.ToLower(strings.TrimSpace(account.Email)),
		FirstName:     account.FirstName,
		LastName:      account.LastName,
		Phone:         optionalString(account.Phone),
		Gender:        optionalString(account.Gender),
		IsActive:      true,
		EmailVerified: true,
	}
}

func doctorProfileFromSeed(user *entity.User, seed *DoctorSeed) *entity.DoctorProfile {
	profile := &entity.DoctorProfile{
		UserID:         user.ID,
		MedicalLicense: seed.MedicalLicense,
		Bio:            seed.Bio,
		Location: entity.DoctorLocation{
			Address:    seed.Location.Address,
			City:       seed.Location.City,
			State:      seed.Location.State,
			Country:    seed.Location.Country,
			PostalCode: seed.Location.PostalCode,
			Latitude:   seed.Location.Latitude,
			Longitude:  seed.Location.Longitude,
		},
		AvailabilityTimezone: seed.Timezone,
		Rating:               seed.Rating,
		ReviewCount:          seed.ReviewCount,
		Languages:            seed.Languages,
	}
	if profile.Location.Country == "" {
		profile.Location.Country = entity.DefaultCountry
	}
	if profile.AvailabilityTimezone == "" {
		profile.AvailabilityTimezone = entity.DefaultTimezone
	}
	if len(profile.Languages) == 0 {
		profile.Languages = []string{entity.DefaultLanguage}
	}
	if seed.ConsultationFee != "" {
		// Validated before admission.
		fee, _ := decimal.NewFromString(seed.ConsultationFee)
		profile.ConsultationFee = decimal.NullDecimal{Decimal: fee, Valid: true}
	}

	for _, specialty := range seed.Specialties {
		profile.Specialties = append(profile.Specialties, entity.DoctorSpecialty{Specialty: specialty})
	}
	for _, slot := range seed.Schedule {
		available := true
		if slot.IsAvailable != nil {
			available = *slot.IsAvailable
		}
		profile.Availability = append(profile.Availability, entity.DoctorAvailability{
			DayOfWeek:   weekdays[strings.ToLower(slot.Day)],
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			IsAvailable: available,
		})
	}

	return profile
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
