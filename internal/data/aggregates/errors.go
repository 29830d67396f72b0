package aggregates

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("store validation")
	// ErrConflict indicates a lost compare-and-set.
	ErrConflict = errors.New("store conflict")
	// ErrUnavailable indicates the store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// UnavailableError tags an error as a store outage.
func UnavailableError(msg string) error {
	return errors.Join(ErrUnavailable, errors.New(strings.TrimSpace(msg)))
}

// IsUniqueViolation reports a unique index violation from postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// MapError maps infrastructure failures into apierr kinds. Errors that
// already carry a kind pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var known *apierr.Error
	if errors.As(err, &known) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return apierr.Wrap(apierr.KindValidation, apierr.CodeInvalidInput, op, err)
	case errors.Is(err, ErrConflict):
		return apierr.Wrap(apierr.KindConflict, apierr.CodeStaleWrite, op, err)
	case errors.Is(err, ErrUnavailable):
		return apierr.Unavailable(apierr.CodeStoreUnavailable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.Wrap(apierr.KindNotFound, apierr.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return apierr.Unavailable(apierr.CodeStoreUnavailable, op, err)
	case IsUniqueViolation(err):
		return apierr.Wrap(apierr.KindConflict, apierr.CodeUniqueViolation, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03", "57P01", "53300":
			return apierr.Unavailable(apierr.CodeStoreUnavailable, op, err) // serialization/deadlock/lock/shutdown/too many connections
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "failed to connect"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"):
		return apierr.Unavailable(apierr.CodeStoreUnavailable, op, err)
	default:
		return apierr.Wrap(apierr.KindInternal, apierr.CodeInternal, op, err)
	}
}
