package usecase

import (
	"errors"

	"medical-messenger/pkg/apperror"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = apperror.New(apperror.KindConflict, "email already exists")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthenticated, "invalid email or password")
	ErrAccountInactive    = apperror.New(apperror.KindUnauthenticated, "account is inactive")
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
	ErrInvalidDateFormat  = apperror.Validation(map[string]string{"date_of_birth": "date_of_birth must use YYYY-MM-DD"})

	ErrDoctorNotFound = apperror.New(apperror.KindNotFound, "doctor not found")

	ErrSubscriptionNotFound    = apperror.New(apperror.KindNotFound, "subscription not found")
	ErrSubscriptionExists      = apperror.New(apperror.KindConflict, "a subscription with this doctor already exists")
	ErrSubscriptionNotPending  = apperror.New(apperror.KindConflict, "subscription is no longer awaiting a response")
	ErrSubscriptionNotApproved = apperror.New(apperror.KindConflict, "subscription is not approved")
	ErrNotPatient              = apperror.New(apperror.KindForbidden, "only patients can request a subscription")
	ErrNotSubscriptionDoctor   = apperror.New(apperror.KindForbidden, "only the subscribed doctor can respond")
	ErrNotSubscriptionPatient  = apperror.New(apperror.KindForbidden, "only the requesting patient can cancel")
	ErrNotSubscriptionParty    = apperror.New(apperror.KindForbidden, "you are not a party to this subscription")

	ErrAuditLogNotFound = apperror.New(apperror.KindNotFound, "audit log not found")
)

// isDuplicateKeyError reports a unique constraint violation, either translated
// by gorm or as a raw PostgreSQL error.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// pageBounds clamps page and limit and returns the row offset.
func pageBounds(page, limit *int, defaultLimit, maxLimit int) (int, int, int) {
	p, l := 1, defaultLimit
	if page != nil && *page > 0 {
		p = *page
	}
	if limit != nil && *limit > 0 {
		l = *limit
	}
	if l > maxLimit {
		l = maxLimit
	}
	return p, l, (p - 1) * l
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
