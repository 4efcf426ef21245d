package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

var (
	// ErrValidation tags caller input validation failure.
	ErrValidation = errors.New("usecase validation")
	// ErrBusinessRule tags a business-rule violation (uniqueness, bad
	// reference, invalid hierarchy, invalid transition).
	ErrBusinessRule = errors.New("usecase business rule violation")
	// ErrConflict tags an optimistic-concurrency loss.
	ErrConflict = errors.New("usecase conflict")
	// ErrRetryable tags a transient infrastructure failure.
	ErrRetryable = errors.New("usecase retryable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// BusinessRuleError tags an error as business-rule violation.
func BusinessRuleError(msg string) error {
	return errors.Join(ErrBusinessRule, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as concurrency conflict.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as transient infrastructure failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

const pgUniqueViolation = "23505"

// MapError maps infrastructure/domain failures into domain error codes.
// Already-coded errors pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *domainagg.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrBusinessRule):
		return domainagg.Wrap(domainagg.CodeBusinessRule, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeInfrastructure, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// A racing writer hit the unique index first; same outcome as a
		// failed pre-check.
		return domainagg.Wrap(domainagg.CodeBusinessRule, op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domainagg.Wrap(domainagg.CodeInfrastructure, op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domainagg.Wrap(domainagg.CodeBusinessRule, op, err)
	}
	return domainagg.Wrap(domainagg.CodeInternal, op, err)
}
