package usecase

import (
	"context"
	"math"

	"medical-messenger/config"
	"medical-messenger/internal/converter"
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/domain/repository"
	"medical-messenger/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultTopRatedLimit     = 10
	maxTopRatedLimit         = 50
	defaultTopRatedMinRating = 4.0
)

// DoctorDirectoryUsecase is the read-only view over doctor profiles.
type DoctorDirectoryUsecase interface {
	SearchDoctors(ctx context.Context, query *dto.DoctorSearchQuery) (*dto.DoctorSearchResponse, error)
	SearchAllDoctors(ctx context.Context, query *dto.AdminDoctorSearchQuery) (*dto.DoctorSearchResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetTopRatedDoctors(ctx context.Context, query *dto.TopRatedQuery) ([]dto.DoctorResponse, error)
	GetStatistics(ctx context.Context) (*dto.DoctorStatisticsResponse, error)
}

type doctorDirectoryUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	doctorRepo repository.DoctorProfileRepository
	cache      service.DirectoryCache
	cfg        config.DirectoryConfig
}

func NewDoctorDirectoryUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	cache service.DirectoryCache,
	cfg config.DirectoryConfig,
) DoctorDirectoryUsecase {
	return &doctorDirectoryUsecase{
		db:         db,
		log:        log,
		doctorRepo: doctorRepo,
		cache:      cache,
		cfg:        cfg,
	}
}

// SearchDoctors lists active, verified doctors only.
func (u *doctorDirectoryUsecase) SearchDoctors(ctx context.Context, query *dto.DoctorSearchQuery) (*dto.DoctorSearchResponse, error) {
	listed := true
	filter := directoryFilter(query)
	filter.IsActive = &listed
	filter.EmailVerified = &listed

	return u.search(ctx, filter, query.Page, query.Limit)
}

// SearchAllDoctors lets admins choose the activity and verification flags.
func (u *doctorDirectoryUsecase) SearchAllDoctors(ctx context.Context, query *dto.AdminDoctorSearchQuery) (*dto.DoctorSearchResponse, error) {
	filter := directoryFilter(&query.DoctorSearchQuery)
	filter.IsActive = query.IsActive
	filter.EmailVerified = query.EmailVerified

	return u.search(ctx, filter, query.Page, query.Limit)
}

func (u *doctorDirectoryUsecase) search(ctx context.Context, filter *entity.DoctorFilter, page, limit *int) (*dto.DoctorSearchResponse, error) {
	p, l, offset := pageBounds(page, limit, u.cfg.DefaultLimit, u.cfg.MaxLimit)

	profiles, total, err := u.doctorRepo.Search(u.db.WithContext(ctx), filter, l, offset)
	if err != nil {
		u.log.Warnf("Failed to search doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorSearchResponse{
		Doctors:    converter.DoctorProfilesToResponses(profiles),
		Page:       p,
		Limit:      l,
		Total:      total,
		TotalPages: totalPages(total, l),
	}, nil
}

// GetDoctor returns a doctor regardless of activity, so existing subscribers
// can still see who they talk to.
func (u *doctorDirectoryUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorDirectoryUsecase) GetTopRatedDoctors(ctx context.Context, query *dto.TopRatedQuery) ([]dto.DoctorResponse, error) {
	limit := defaultTopRatedLimit
	if query.Limit != nil {
		limit = min(*query.Limit, maxTopRatedLimit)
	}
	minRating := defaultTopRatedMinRating
	if query.MinRating != nil {
		minRating = *query.MinRating
	}

	profiles, err := u.doctorRepo.FindTopRated(u.db.WithContext(ctx), limit, minRating)
	if err != nil {
		u.log.Warnf("Failed to find top rated doctors: %+v", err)
		return nil, err
	}

	return converter.DoctorProfilesToResponses(profiles), nil
}

// GetStatistics serves the aggregates from cache when possible. The cache is
// advisory: its failures are logged and the store is queried instead.
func (u *doctorDirectoryUsecase) GetStatistics(ctx context.Context) (*dto.DoctorStatisticsResponse, error) {
	cached, err := u.cache.GetStatistics(ctx)
	if err != nil {
		u.log.Warnf("Failed to read cached doctor statistics: %+v", err)
	}
	if cached != nil {
		return converter.DoctorStatisticsToResponse(cached), nil
	}

	stats, err := u.doctorRepo.Statistics(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to compute doctor statistics: %+v", err)
		return nil, err
	}
	stats.AverageRating = math.Round(stats.AverageRating*100) / 100

	if err := u.cache.SetStatistics(ctx, stats, u.cfg.StatsCacheTTL); err != nil {
		u.log.Warnf("Failed to cache doctor statistics: %+v", err)
	}

	return converter.DoctorStatisticsToResponse(stats), nil
}

func directoryFilter(query *dto.DoctorSearchQuery) *entity.DoctorFilter {
	return &entity.DoctorFilter{
		Query:     query.Query,
		Specialty: query.Specialty,
		City:      query.City,
		State:     query.State,
		MinRating: query.MinRating,
	}
}
