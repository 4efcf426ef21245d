package outbox

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

// Leader serializes outbox draining across replicas with a Postgres
// session-level advisory lock. The lock lives on a dedicated pgx
// connection so GORM's pool cannot recycle it mid-lease.
type Leader struct {
	dsn string
	key int64
	log *logger.Logger

	mu   sync.Mutex
	conn *pgx.Conn
}

func NewLeader(dsn, name string, log *logger.Logger) *Leader {
	return &Leader{
		dsn: dsn,
		key: leaderKey64(name),
		log: log.With("service", "OutboxLeader"),
	}
}

func leaderKey64(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("leader:"))
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

func (l *Leader) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// TryAcquire attempts to take the advisory lock. Non-blocking: a false
// return means another replica is draining.
func (l *Leader) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return true, nil
	}

	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return false, err
	}
	var won bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&won); err != nil {
		_ = conn.Close(ctx)
		return false, err
	}
	if !won {
		_ = conn.Close(ctx)
		return false, nil
	}
	l.conn = conn
	l.log.Info("outbox leadership acquired")
	return true, nil
}

func (l *Leader) Release(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key)
	_ = l.conn.Close(ctx)
	l.conn = nil
	l.log.Info("outbox leadership released")
}
