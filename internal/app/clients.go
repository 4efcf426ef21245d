package app

import (
	"fmt"
	"strings"

	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
)

type Clients struct {
	EventBus bus.Bus
}

// wireClients builds the external clients. Without a Redis address the
// event bus degrades to in-process delivery, which keeps single-node
// deployments and tests working.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var eventBus bus.Bus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := bus.NewRedisBus(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		eventBus = b
	} else {
		eventBus = bus.NewLocalBus()
	}

	return Clients{EventBus: eventBus}, nil
}
