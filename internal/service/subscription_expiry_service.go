package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Expired subscriptions handled per sweep query
	expirySweepBatchSize = 200

	// Upper bound for a single sweep
	expirySweepTimeout = 30 * time.Second
)

// SubscriptionExpiryService cancels requested subscriptions that nobody
// answered before their expires_at.
//
// Each subscription is cancelled in its own transaction with the same
// conditional update a patient cancel uses, so a doctor answering at the
// same moment either wins or observes the cancellation.
type SubscriptionExpiryService struct {
	db               *gorm.DB
	log              *logrus.Logger
	subscriptionRepo repository.SubscriptionRepository
	auditService     AuditService
	interval         time.Duration
	now              func() time.Time

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewSubscriptionExpiryService(
	db *gorm.DB,
	log *logrus.Logger,
	subscriptionRepo repository.SubscriptionRepository,
	auditService AuditService,
	interval time.Duration,
) *SubscriptionExpiryService {
	return &SubscriptionExpiryService{
		db:               db,
		log:              log,
		subscriptionRepo: subscriptionRepo,
		auditService:     auditService,
		interval:         interval,
		now:              func() time.Time { return time.Now().UTC() },
		stopChan:         make(chan struct{}),
	}
}

// Start launches the background sweep loop. A non-positive interval disables it.
func (s *SubscriptionExpiryService) Start() {
	if s.interval <= 0 || !s.started.CompareAndSwap(false, true) {
		return
	}

	s.wg.Add(1)
	go s.sweepLoop()
	s.log.Infof("Subscription expiry sweeper started (interval=%v)", s.interval)
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *SubscriptionExpiryService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SubscriptionExpiryService stopped")
	}
}

// SweepOnce cancels every expired requested subscription and returns how many
// this call cancelled.
func (s *SubscriptionExpiryService) SweepOnce(ctx context.Context) (int, error) {
	cancelled := 0
	for {
		expired, err := s.subscriptionRepo.FindExpired(s.db.WithContext(ctx), s.now(), expirySweepBatchSize)
		if err != nil {
			s.log.Warnf("Failed to find expired subscriptions: %+v", err)
			return cancelled, err
		}
		if len(expired) == 0 {
			break
		}

		for i := range expired {
			ok, err := s.expire(ctx, &expired[i])
			if err != nil {
				return cancelled, err
			}
			if ok {
				cancelled++
			}
		}

		if len(expired) < expirySweepBatchSize {
			break
		}

		select {
		case <-ctx.Done():
			return cancelled, ctx.Err()
		default:
		}
	}

	if cancelled > 0 {
		s.log.Infof("Expired %d subscription request(s)", cancelled)
	}
	return cancelled, nil
}

func (s *SubscriptionExpiryService) expire(ctx context.Context, subscription *entity.Subscription) (bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	now := s.now()
	affected, err := s.subscriptionRepo.TransitionFromRequested(tx, subscription.ID, repository.SubscriptionTransition{
		Status:      entity.SubscriptionStatusCancelled,
		RespondedAt: &now,
		IsActive:    false,
	})
	if err != nil {
		s.log.Warnf("Failed to expire subscription %s: %+v", subscription.ID, err)
		return false, err
	}
	if affected == 0 {
		// Answered or cancelled since the sweep query ran.
		return false, nil
	}

	if err := s.auditService.LogUpdate(ctx, tx, nil, entity.AuditActionSubscriptionExpire, entity.AuditEntitySubscription, subscription.ID.String(),
		map[string]interface{}{"status": subscription.Status},
		map[string]interface{}{"status": entity.SubscriptionStatusCancelled},
	); err != nil {
		return false, err
	}

	if err := tx.Commit().Error; err != nil {
		s.log.Warnf("Failed commit transaction: %+v", err)
		return false, err
	}
	return true, nil
}

func (s *SubscriptionExpiryService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Subscription expiry goroutine stopping")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), expirySweepTimeout)
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.Warnf("Subscription expiry sweep failed: %+v", err)
			}
			cancel()
		}
	}
}
