package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
)

var (
	codePattern  = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,31}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	userPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)
)

// violations collects every shape problem in one pass so the caller gets
// the full list in a single validation error, not one problem at a time.
type violations struct {
	items []string
}

func (v *violations) addf(format string, args ...any) {
	v.items = append(v.items, fmt.Sprintf(format, args...))
}

func (v *violations) requireUUID(field string, id uuid.UUID) {
	if id == uuid.Nil {
		v.addf("%s is required", field)
	}
}

func (v *violations) requireText(field, value string, max int) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.addf("%s is required", field)
		return
	}
	if len(value) > max {
		v.addf("%s must be at most %d characters", field, max)
	}
}

func (v *violations) optionalText(field, value string, max int) {
	if len(strings.TrimSpace(value)) > max {
		v.addf("%s must be at most %d characters", field, max)
	}
}

func (v *violations) requireCode(field, value string) {
	if !codePattern.MatchString(strings.TrimSpace(value)) {
		v.addf("%s must match %s", field, codePattern.String())
	}
}

func (v *violations) requireEmail(field, value string) {
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		v.addf("%s must be a valid email address", field)
	}
}

func (v *violations) optionalEmail(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	v.requireEmail(field, value)
}

func (v *violations) requireUsername(field, value string) {
	if !userPattern.MatchString(strings.TrimSpace(value)) {
		v.addf("%s must match %s", field, userPattern.String())
	}
}

// err returns nil when no violation was recorded, so validation can end
// with a bare `return v.err(op)`.
func (v *violations) err(op string) error {
	if len(v.items) == 0 {
		return nil
	}
	return domainagg.NewValidation(op, v.items)
}
