package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/types"
)

// AggregateTemplate identifies the notification template aggregate kind.
const AggregateTemplate = "notification_template"

const (
	EventTemplateCreated       = AggregateTemplate + event.SuffixCreated
	EventTemplateUpdated       = AggregateTemplate + event.SuffixUpdated
	EventTemplateStatusChanged = AggregateTemplate + event.SuffixStatusChanged
	EventTemplateDeleted       = AggregateTemplate + event.SuffixDeleted
)

// Delivery channels a template may target.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
	ChannelInApp = "inapp"
)

func KnownChannel(c string) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// Template wraps a notification template snapshot with its uncommitted
// events.
type Template struct {
	event.Recorder
	T *types.NotificationTemplate
}

func LoadTemplate(t *types.NotificationTemplate) *Template {
	return &Template{T: t}
}

type NewTemplateInput struct {
	TenantID uuid.UUID
	Code     string
	Name     string
	Channel  string
	Subject  string
	Body     string
	Locale   string
	IsSystem bool
	Actor    uuid.UUID
	Now      time.Time
}

// NewTemplate fixes isolation at TENANT, or PLATFORM for system templates
// visible to every tenant.
func NewTemplate(in NewTemplateInput) *Template {
	id := uuid.New()
	now := in.Now.UTC()
	isolation := scope.IsolationTenant
	if in.IsSystem {
		isolation = scope.IsolationPlatform
	}
	locale := in.Locale
	if locale == "" {
		locale = "en"
	}
	t := &types.NotificationTemplate{
		ID:             id,
		TenantID:       in.TenantID,
		IsolationLevel: string(isolation),
		PrivacyLevel:   string(scope.PrivacyShared),
		Code:           in.Code,
		Name:           in.Name,
		Channel:        in.Channel,
		Subject:        in.Subject,
		Body:           in.Body,
		Locale:         locale,
		IsSystem:       in.IsSystem,
		Status:         string(lifecycle.StatusInitializing),
		Version:        1,
		CreatedBy:      in.Actor,
		UpdatedBy:      in.Actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	agg := &Template{T: t}
	agg.Record(event.New(EventTemplateCreated, AggregateTemplate, id, 1, now, event.CreatedPayload{
		Actor:          in.Actor,
		TenantID:       t.TenantID,
		IsolationLevel: t.IsolationLevel,
		PrivacyLevel:   t.PrivacyLevel,
		Status:         t.Status,
		Name:           t.Name,
		Code:           t.Code,
		NaturalKey:     t.Code,
		Fields: map[string]any{
			"channel":   t.Channel,
			"subject":   t.Subject,
			"body":      t.Body,
			"locale":    t.Locale,
			"is_system": t.IsSystem,
		},
	}))
	return agg
}

type TemplateInfoUpdate struct {
	Name    *string
	Subject *string
	Body    *string
	Locale  *string
}

func (a *Template) UpdateInfo(in TemplateInfoUpdate, actor uuid.UUID, now time.Time) bool {
	changes := map[string]event.FieldChange{}
	if in.Name != nil && *in.Name != a.T.Name {
		changes["name"] = event.FieldChange{Old: a.T.Name, New: *in.Name}
		a.T.Name = *in.Name
	}
	if in.Subject != nil && *in.Subject != a.T.Subject {
		changes["subject"] = event.FieldChange{Old: a.T.Subject, New: *in.Subject}
		a.T.Subject = *in.Subject
	}
	if in.Body != nil && *in.Body != a.T.Body {
		changes["body"] = event.FieldChange{Old: a.T.Body, New: *in.Body}
		a.T.Body = *in.Body
	}
	if in.Locale != nil && *in.Locale != a.T.Locale {
		changes["locale"] = event.FieldChange{Old: a.T.Locale, New: *in.Locale}
		a.T.Locale = *in.Locale
	}
	if len(changes) == 0 {
		return false
	}
	a.bump(actor, now)
	a.Record(event.New(EventTemplateUpdated, AggregateTemplate, a.T.ID, a.T.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: changes,
	}))
	return true
}

func (a *Template) ChangeStatus(to lifecycle.Status, actor uuid.UUID, now time.Time) error {
	const op = "Notification.Template.ChangeStatus"
	cur := lifecycle.Status(a.T.Status)
	if to == cur {
		return nil
	}
	if !lifecycle.Known(to) || !lifecycle.CanTransition(cur, to) {
		return invalidTransition(op, cur, to)
	}
	prev := a.T.Status
	a.T.Status = string(to)
	a.bump(actor, now)
	a.Record(event.New(EventTemplateStatusChanged, AggregateTemplate, a.T.ID, a.T.Version, now, event.StatusChangedPayload{
		Actor:          actor,
		PreviousStatus: prev,
		NewStatus:      string(to),
	}))
	return nil
}

func (a *Template) Delete(actor uuid.UUID, now time.Time) bool {
	if !lifecycle.Deletable(lifecycle.Status(a.T.Status)) {
		return false
	}
	a.T.Status = string(lifecycle.StatusDeleted)
	a.bump(actor, now)
	a.Record(event.New(EventTemplateDeleted, AggregateTemplate, a.T.ID, a.T.Version, now, event.DeletedPayload{
		Actor: actor,
	}))
	return true
}

func (a *Template) bump(actor uuid.UUID, now time.Time) {
	a.T.Version++
	a.T.UpdatedBy = actor
	a.T.UpdatedAt = now.UTC()
}
