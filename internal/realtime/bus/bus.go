package bus

import (
	"context"

	"github.com/brynevale/admincore-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.EventNotice) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.EventNotice)) error
	Close() error
}
