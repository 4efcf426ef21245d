package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/data/repos"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/notification"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

type CreateTemplateInput struct {
	TenantID uuid.UUID
	Code     string
	Name     string
	Channel  string
	Subject  string
	Body     string
	Locale   string
	IsSystem bool
}

type TemplateService interface {
	Create(ctx context.Context, accessor scope.Accessor, in CreateTemplateInput) (*types.NotificationTemplate, error)
	UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in notification.TemplateInfoUpdate) (*types.NotificationTemplate, error)
	ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.NotificationTemplate, error)
	Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error
}

type templateService struct {
	db        *gorm.DB
	log       *logger.Logger
	deps      aggregates.BaseDeps
	templates repos.TemplateRepo
	tenants   repos.TenantRepo
	outbox    repos.OutboxRepo
	bus       bus.Bus
}

func NewTemplateService(deps aggregates.BaseDeps, templates repos.TemplateRepo, tenants repos.TenantRepo, outboxRepo repos.OutboxRepo, eventBus bus.Bus) TemplateService {
	deps = deps.WithDefaults()
	return &templateService{
		db:        deps.DB,
		log:       deps.Log.With("service", "TemplateService"),
		deps:      deps,
		templates: templates,
		tenants:   tenants,
		outbox:    outboxRepo,
		bus:       eventBus,
	}
}

func (s *templateService) Create(ctx context.Context, accessor scope.Accessor, in CreateTemplateInput) (*types.NotificationTemplate, error) {
	const op = "notification_template.create"

	v := &violations{}
	v.requireUUID("tenant_id", in.TenantID)
	v.requireCode("code", in.Code)
	v.requireText("name", in.Name, 120)
	v.requireText("body", in.Body, 100_000)
	v.optionalText("subject", in.Subject, 500)
	v.optionalText("locale", in.Locale, 16)
	if !notification.KnownChannel(in.Channel) {
		v.addf("channel must be one of email, sms, push, inapp")
	}
	if err := v.err(op); err != nil {
		return nil, err
	}
	if in.IsSystem && accessor.Isolation != scope.IsolationPlatform {
		return nil, aggregates.MapError(op, aggregates.BusinessRuleError("only platform operators can create system templates"))
	}

	var agg *notification.Template
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		tenant, err := s.tenants.GetByID(dbc, in.TenantID)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, tenant.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(tenant.Status)) {
			return aggregates.BusinessRuleError("tenant is deleted")
		}
		if exists, err := s.templates.CodeExists(dbc, in.TenantID, in.Code, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("template code already in use for tenant")
		}

		agg = notification.NewTemplate(notification.NewTemplateInput{
			TenantID: in.TenantID,
			Code:     in.Code,
			Name:     in.Name,
			Channel:  in.Channel,
			Subject:  in.Subject,
			Body:     in.Body,
			Locale:   in.Locale,
			IsSystem: in.IsSystem,
			Actor:    accessor.UserID,
			Now:      time.Now().UTC(),
		})
		if err := s.templates.Create(dbc, agg.T); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *templateService) UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in notification.TemplateInfoUpdate) (*types.NotificationTemplate, error) {
	const op = "notification_template.update_info"

	v := &violations{}
	v.requireUUID("id", id)
	if in.Name != nil {
		v.requireText("name", *in.Name, 120)
	}
	if in.Body != nil {
		v.requireText("body", *in.Body, 100_000)
	}
	if in.Subject != nil {
		v.optionalText("subject", *in.Subject, 500)
	}
	if in.Locale != nil {
		v.requireText("locale", *in.Locale, 16)
	}
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *notification.Template
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.templates.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("template is deleted")
		}
		if row.IsSystem && accessor.Isolation != scope.IsolationPlatform {
			return aggregates.BusinessRuleError("only platform operators can modify system templates")
		}

		loaded := row.Version
		agg = notification.LoadTemplate(row)
		if !agg.UpdateInfo(in, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.templates.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "template was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *templateService) ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.NotificationTemplate, error) {
	const op = "notification_template.change_status"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *notification.Template
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.templates.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if row.IsSystem && accessor.Isolation != scope.IsolationPlatform {
			return aggregates.BusinessRuleError("only platform operators can modify system templates")
		}

		loaded := row.Version
		agg = notification.LoadTemplate(row)
		if err := agg.ChangeStatus(to, accessor.UserID, time.Now().UTC()); err != nil {
			return err
		}
		if len(agg.Uncommitted()) == 0 {
			return nil
		}
		ok, err := s.templates.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "template was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *templateService) Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error {
	const op = "notification_template.delete"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return err
	}

	var agg *notification.Template
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.templates.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if row.IsSystem && accessor.Isolation != scope.IsolationPlatform {
			return aggregates.BusinessRuleError("only platform operators can delete system templates")
		}

		loaded := row.Version
		agg = notification.LoadTemplate(row)
		if !agg.Delete(accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.templates.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "template was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return nil
}
