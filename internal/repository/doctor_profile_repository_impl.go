package repository

import (
	"errors"
	"strings"

	"medical-messenger/internal/domain/entity"
	domainRepo "medical-messenger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
)

const (
	usersJoin           = "JOIN users ON users.id = doctor_profiles.user_id"
	specialtyStatsLimit = 10
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

// Create inserts the profile together with its specialties and availability rows.
func (r *doctorProfileRepository) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	for i := range profile.Specialties {
		profile.Specialties[i].Position = i
	}
	return db.Omit("User").Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := withDoctorDetails(db).Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Search returns one page of matching doctors and the total match count.
// The page and the count are fetched concurrently.
func (r *doctorProfileRepository) Search(db *gorm.DB, filter *entity.DoctorFilter, limit, offset int) ([]entity.DoctorProfile, int64, error) {
	var (
		profiles []entity.DoctorProfile
		total    int64
	)

	p := pool.New().WithErrors()
	p.Go(func() error {
		return db.Model(&entity.DoctorProfile{}).Scopes(doctorDirectory(filter)).Count(&total).Error
	})
	p.Go(func() error {
		return withDoctorDetails(db).
			Scopes(doctorDirectory(filter), doctorRanking).
			Limit(limit).
			Offset(offset).
			Find(&profiles).Error
	})
	if err := p.Wait(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *doctorProfileRepository) FindTopRated(db *gorm.DB, limit int, minRating float64) ([]entity.DoctorProfile, error) {
	listed := true
	filter := &entity.DoctorFilter{
		MinRating:     &minRating,
		IsActive:      &listed,
		EmailVerified: &listed,
	}

	var profiles []entity.DoctorProfile
	err := withDoctorDetails(db).
		Scopes(doctorDirectory(filter), doctorRanking).
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Statistics runs the directory aggregates concurrently. Average rating and
// specialty counts only consider active, verified doctors.
func (r *doctorProfileRepository) Statistics(db *gorm.DB) (*entity.DoctorStatistics, error) {
	stats := &entity.DoctorStatistics{}

	p := pool.New().WithErrors()
	p.Go(func() error {
		return db.Model(&entity.DoctorProfile{}).Count(&stats.Total).Error
	})
	p.Go(func() error {
		return db.Model(&entity.DoctorProfile{}).
			Joins(usersJoin).
			Where("users.is_active = ?", true).
			Count(&stats.Active).Error
	})
	p.Go(func() error {
		return db.Model(&entity.DoctorProfile{}).
			Joins(usersJoin).
			Where("users.email_verified = ?", true).
			Count(&stats.Verified).Error
	})
	p.Go(func() error {
		var row struct {
			AverageRating float64
		}
		err := db.Model(&entity.DoctorProfile{}).
			Select("COALESCE(AVG(doctor_profiles.rating), 0) AS average_rating").
			Joins(usersJoin).
			Where("users.is_active = ? AND users.email_verified = ?", true, true).
			Scan(&row).Error
		stats.AverageRating = row.AverageRating
		return err
	})
	p.Go(func() error {
		return db.Model(&entity.DoctorSpecialty{}).
			Select("doctor_specialties.specialty AS specialty, COUNT(*) AS count").
			Joins("JOIN users ON users.id = doctor_specialties.doctor_id").
			Where("users.is_active = ? AND users.email_verified = ?", true, true).
			Group("doctor_specialties.specialty").
			Order("COUNT(*) DESC, doctor_specialties.specialty ASC").
			Limit(specialtyStatsLimit).
			Scan(&stats.SpecialtyCounts).Error
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	if stats.SpecialtyCounts == nil {
		stats.SpecialtyCounts = []entity.SpecialtyCount{}
	}
	return stats, nil
}

func withDoctorDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Specialties", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Availability", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		})
}

// doctorDirectory joins users and applies every non-empty filter field.
func doctorDirectory(filter *entity.DoctorFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Joins(usersJoin)
		if filter == nil {
			return db
		}

		if filter.Query != "" {
			pattern := containsPattern(filter.Query)
			db = db.Where("(LOWER(users.first_name) LIKE ? ESCAPE '\\' OR LOWER(users.last_name) LIKE ? ESCAPE '\\')", pattern, pattern)
		}
		if filter.Specialty != "" {
			db = db.Where(
				"EXISTS (SELECT 1 FROM doctor_specialties ds WHERE ds.doctor_id = doctor_profiles.user_id AND ds.specialty = ?)",
				filter.Specialty,
			)
		}
		if filter.City != "" {
			db = db.Where("LOWER(doctor_profiles.location_city) LIKE ? ESCAPE '\\'", containsPattern(filter.City))
		}
		if filter.State != "" {
			db = db.Where("LOWER(doctor_profiles.location_state) LIKE ? ESCAPE '\\'", containsPattern(filter.State))
		}
		if filter.MinRating != nil {
			db = db.Where("doctor_profiles.rating >= ?", *filter.MinRating)
		}
		if filter.IsActive != nil {
			db = db.Where("users.is_active = ?", *filter.IsActive)
		}
		if filter.EmailVerified != nil {
			db = db.Where("users.email_verified = ?", *filter.EmailVerified)
		}
		return db
	}
}

// doctorRanking orders by rating, then review count, then newest first;
// user_id makes the order total so pages never overlap.
func doctorRanking(db *gorm.DB) *gorm.DB {
	return db.Order("doctor_profiles.rating DESC, doctor_profiles.review_count DESC, doctor_profiles.created_at DESC, doctor_profiles.user_id ASC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern lowercases s and escapes LIKE wildcards so user input matches literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
