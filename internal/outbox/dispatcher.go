package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brynevale/admincore-backend/internal/data/repos"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/projection"
	"github.com/brynevale/admincore-backend/internal/realtime"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	WorkerLimit  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.WorkerLimit <= 0 {
		c.WorkerLimit = 8
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	return c
}

// Dispatcher drains pending outbox rows and delivers them to every
// registered projector. Delivery is at-least-once: a row is marked
// dispatched only after all projectors applied (or skipped) it.
// Within one aggregate events are delivered in version order and a
// failure stops that aggregate's group, holding the gap closed.
type Dispatcher struct {
	outbox     repos.OutboxRepo
	projectors []projection.Projector
	wakeBus    bus.Bus
	leader     *Leader
	log        *logger.Logger
	metrics    *observability.Metrics
	cfg        Config
	wake       chan struct{}
}

func NewDispatcher(outboxRepo repos.OutboxRepo, projectors []projection.Projector, wakeBus bus.Bus, leader *Leader, baseLog *logger.Logger, metrics *observability.Metrics, cfg Config) *Dispatcher {
	return &Dispatcher{
		outbox:     outboxRepo,
		projectors: projectors,
		wakeBus:    wakeBus,
		leader:     leader,
		log:        baseLog.With("service", "OutboxDispatcher"),
		metrics:    metrics,
		cfg:        cfg.withDefaults(),
		wake:       make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled. It drains on a poll ticker and
// immediately on bus wake-ups published after a write commits.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.wakeBus != nil {
		if err := d.wakeBus.StartForwarder(ctx, func(realtime.EventNotice) {
			select {
			case d.wake <- struct{}{}:
			default:
			}
		}); err != nil {
			d.log.Warn("bus forwarder unavailable, polling only", "error", err)
		}
	}

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if d.leader != nil {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				d.leader.Release(releaseCtx)
				cancel()
			}
			return ctx.Err()
		case <-ticker.C:
		case <-d.wake:
		}

		if d.leader != nil && !d.leader.Held() {
			won, err := d.leader.TryAcquire(ctx)
			if err != nil {
				d.log.Warn("leader acquire failed", "error", err)
				continue
			}
			if !won {
				continue
			}
		}

		if err := d.Drain(ctx); err != nil && ctx.Err() == nil {
			d.log.Error("outbox drain failed", "error", err)
		}
	}
}

// Drain delivers one batch of due pending events.
func (d *Dispatcher) Drain(ctx context.Context) error {
	dbc := dbctx.New(ctx)
	now := time.Now().UTC()

	rows, err := d.outbox.DuePending(dbc, now, d.cfg.BatchSize)
	if err != nil {
		return err
	}
	if pending, err := d.outbox.CountPending(dbc); err == nil {
		d.metrics.SetOutboxDepth(int(pending))
	}
	if len(rows) == 0 {
		return nil
	}

	groups := groupByAggregate(rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.WorkerLimit)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			d.deliverGroup(gctx, group)
			return nil
		})
	}
	return g.Wait()
}

// groupByAggregate splits a version-ordered batch into per-aggregate
// slices, preserving order inside each slice.
func groupByAggregate(rows []*types.OutboxEvent) [][]*types.OutboxEvent {
	index := map[uuid.UUID]int{}
	var groups [][]*types.OutboxEvent
	for _, row := range rows {
		i, ok := index[row.AggregateID]
		if !ok {
			i = len(groups)
			index[row.AggregateID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], row)
	}
	return groups
}

func (d *Dispatcher) deliverGroup(ctx context.Context, group []*types.OutboxEvent) {
	dbc := dbctx.New(ctx)
	for _, evt := range group {
		if ctx.Err() != nil {
			return
		}
		if err := d.deliver(ctx, evt); err != nil {
			d.markFailed(dbc, evt, err)
			// Later versions of this aggregate must wait for this one.
			return
		}
		if err := d.outbox.MarkDispatched(dbc, []uuid.UUID{evt.ID}, time.Now().UTC()); err != nil {
			d.log.Error("mark dispatched failed", "event_id", evt.EventID, "error", err)
			return
		}
		d.metrics.IncOutboxDispatched()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt *types.OutboxEvent) error {
	for _, p := range d.projectors {
		if !p.Handles(evt.AggregateType) {
			continue
		}
		if _, err := p.Apply(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) markFailed(dbc dbctx.Context, evt *types.OutboxEvent, cause error) {
	attempts := evt.Attempts + 1
	next := time.Now().UTC().Add(d.backoff(attempts))
	if err := d.outbox.MarkFailed(dbc, evt.ID, attempts, next, cause.Error()); err != nil {
		d.log.Error("mark failed errored", "event_id", evt.EventID, "error", err)
		return
	}
	d.metrics.IncOutboxFailed()
	d.log.Warn("event delivery failed, rescheduled",
		"event_id", evt.EventID,
		"event_type", evt.EventType,
		"attempts", attempts,
		"next_attempt_at", next,
		"error", cause)
}

func (d *Dispatcher) backoff(attempts int) time.Duration {
	backoff := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	if backoff > d.cfg.MaxBackoff {
		return d.cfg.MaxBackoff
	}
	return backoff
}
