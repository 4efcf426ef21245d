package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/readmodel"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/notification"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

// viewProjector maintains view_document rows for a set of aggregate
// kinds. All kinds share the same event shapes, so the directory and
// template projectors differ only in their handled sets.
type viewProjector struct {
	name    string
	handled map[string]bool
	views   readmodel.ViewRepo
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewDirectoryProjector(views readmodel.ViewRepo, baseLog *logger.Logger, metrics *observability.Metrics) Projector {
	return &viewProjector{
		name: "directory",
		handled: map[string]bool{
			directory.AggregateTenant:       true,
			directory.AggregateOrganization: true,
			directory.AggregateDepartment:   true,
			directory.AggregateAdminUser:    true,
		},
		views:   views,
		log:     baseLog.With("projector", "directory"),
		metrics: metrics,
	}
}

func NewTemplateProjector(views readmodel.ViewRepo, baseLog *logger.Logger, metrics *observability.Metrics) Projector {
	return &viewProjector{
		name: "template",
		handled: map[string]bool{
			notification.AggregateTemplate: true,
		},
		views:   views,
		log:     baseLog.With("projector", "template"),
		metrics: metrics,
	}
}

func (p *viewProjector) Name() string { return p.name }

func (p *viewProjector) Handles(aggregateType string) bool { return p.handled[aggregateType] }

func (p *viewProjector) Apply(ctx context.Context, evt *types.OutboxEvent) (Result, error) {
	if !p.handled[evt.AggregateType] {
		return ResultUnknown, nil
	}
	dbc := dbctx.New(ctx)

	var res Result
	var err error
	switch event.Suffix(evt.EventType) {
	case event.SuffixCreated:
		res, err = p.applyCreated(dbc, evt)
	case event.SuffixUpdated, event.SuffixStatusChanged, event.SuffixOrganizationAssigned, event.SuffixDeleted:
		res, err = p.applyMutation(dbc, evt)
	default:
		p.log.Warn("dropping unknown event type", "event_type", evt.EventType, "event_id", evt.EventID)
		p.metrics.IncProjectorSkipped(p.name, "unknown_type")
		return ResultUnknown, nil
	}

	switch {
	case errors.Is(err, ErrGap):
		p.metrics.IncProjectorHeld(p.name)
	case err == nil && res == ResultApplied:
		p.metrics.IncProjectorApplied(p.name)
	case err == nil && res == ResultDuplicate:
		p.metrics.IncProjectorSkipped(p.name, "duplicate")
	}
	return res, err
}

func (p *viewProjector) applyCreated(dbc dbctx.Context, evt *types.OutboxEvent) (Result, error) {
	existing, err := p.views.GetAny(dbc, evt.AggregateID)
	if err == nil {
		if existing.LastAppliedVersion >= evt.Version {
			return ResultDuplicate, nil
		}
		return ResultApplied, fmt.Errorf("view for %s exists below created version %d", evt.AggregateID, evt.Version)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ResultApplied, err
	}

	var payload event.CreatedPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return ResultApplied, fmt.Errorf("unmarshal created payload: %w", err)
	}

	doc := datatypes.JSONMap{
		"name":        payload.Name,
		"code":        payload.Code,
		"natural_key": payload.NaturalKey,
		"status":      payload.Status,
	}
	for k, v := range payload.Fields {
		doc[k] = v
	}

	row := &types.ViewDocument{
		AggregateID:        evt.AggregateID,
		AggregateType:      evt.AggregateType,
		TenantID:           payload.TenantID,
		OrganizationID:     payload.OrganizationID,
		DepartmentIDs:      payload.DepartmentIDs,
		OwnerUserID:        payload.OwnerUserID,
		IsolationLevel:     payload.IsolationLevel,
		PrivacyLevel:       payload.PrivacyLevel,
		Status:             payload.Status,
		Name:               payload.Name,
		Code:               payload.Code,
		NaturalKey:         payload.NaturalKey,
		LastAppliedVersion: evt.Version,
		Doc:                doc,
		CreatedAt:          evt.OccurredOn,
		UpdatedAt:          evt.OccurredOn,
	}
	if err := p.views.Insert(dbc, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ResultDuplicate, nil
		}
		return ResultApplied, err
	}
	return ResultApplied, nil
}

func (p *viewProjector) applyMutation(dbc dbctx.Context, evt *types.OutboxEvent) (Result, error) {
	doc, err := p.views.GetAny(dbc, evt.AggregateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Created event not applied yet.
		return ResultApplied, ErrGap
	}
	if err != nil {
		return ResultApplied, err
	}
	if evt.Version <= doc.LastAppliedVersion {
		return ResultDuplicate, nil
	}
	if evt.Version > doc.LastAppliedVersion+1 {
		return ResultApplied, ErrGap
	}
	if doc.Doc == nil {
		doc.Doc = datatypes.JSONMap{}
	}

	switch event.Suffix(evt.EventType) {
	case event.SuffixUpdated:
		var payload event.UpdatedPayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			return ResultApplied, fmt.Errorf("unmarshal updated payload: %w", err)
		}
		for field, change := range payload.ChangedFields {
			doc.Doc[field] = change.New
		}
		if change, ok := payload.ChangedFields["name"]; ok {
			if name, ok := change.New.(string); ok {
				doc.Name = name
			}
		}
	case event.SuffixStatusChanged:
		var payload event.StatusChangedPayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			return ResultApplied, fmt.Errorf("unmarshal status payload: %w", err)
		}
		doc.Status = payload.NewStatus
		doc.Doc["status"] = payload.NewStatus
	case event.SuffixOrganizationAssigned:
		var payload event.OrganizationAssignedPayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			return ResultApplied, fmt.Errorf("unmarshal organization payload: %w", err)
		}
		orgID := payload.OrganizationID
		doc.OrganizationID = &orgID
		doc.DepartmentIDs = payload.DepartmentIDs
		doc.IsolationLevel = payload.IsolationLevel
		doc.Doc["organization_id"] = orgID.String()
	case event.SuffixDeleted:
		doc.Status = string(lifecycle.StatusDeleted)
		doc.Doc["status"] = string(lifecycle.StatusDeleted)
		deletedAt := evt.OccurredOn
		doc.DeletedAt = &deletedAt
	}

	prev := doc.LastAppliedVersion
	doc.LastAppliedVersion = evt.Version
	doc.UpdatedAt = evt.OccurredOn

	ok, err := p.views.UpdateApplied(dbc, doc, prev)
	if err != nil {
		return ResultApplied, err
	}
	if !ok {
		// Another projector instance advanced the document first.
		return ResultDuplicate, nil
	}
	return ResultApplied, nil
}
