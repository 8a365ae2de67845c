package storage

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/deepcut/internal/log"
)

// Health is the last observed state of a store backend
type Health struct {
	LastCheck time.Time `json:"last_check" msgpack:"last_check"`
	Status    string    `json:"status" msgpack:"status"`
	Message   string    `json:"message,omitempty" msgpack:"message,omitempty"`
	Error     string    `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Healthy reports whether the backend passed its last check
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// HealthChecker is implemented by backends that can check their own connection
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// HealthManager keeps the latest health of each backend in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]Health
}

// NewHealthManager creates an empty health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]Health),
	}
}

// UpdateHealth records the health of a backend
func (hm *HealthManager) UpdateHealth(backend string, h Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health[backend] = h
}

// GetHealth returns the last recorded health of a backend
func (hm *HealthManager) GetHealth(backend string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[backend]
	return h, ok
}

// GetAllHealth returns a copy of every recorded health
func (hm *HealthManager) GetAllHealth() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]Health, len(hm.health))
	for k, v := range hm.health {
		result[k] = v
	}
	return result
}

// AllHealthy reports whether every recorded backend is healthy
func (hm *HealthManager) AllHealthy() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	for _, h := range hm.health {
		if !h.Healthy() {
			return false
		}
	}
	return true
}

// StartHealthMonitor checks a backend immediately and then every interval until ctx is
// cancelled, recording each result in hm.
func (hm *HealthManager) StartHealthMonitor(ctx context.Context, backend string, checker HealthChecker, interval time.Duration) {
	update := func() {
		h := checker.CheckHealth(ctx)
		hm.UpdateHealth(backend, h)
		if h.Healthy() {
			log.Debugf("%s health: %s", backend, h.Status)
		} else {
			log.Warnf("%s health: %s (%s)", backend, h.Status, h.Error)
		}
	}

	update()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				update()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", backend)
				return
			}
		}
	}()
}

// PingHealth runs the common check: a ping followed by a trivial query
func PingHealth(ctx context.Context, ping func(context.Context) error, query func(context.Context) error, name string) Health {
	h := Health{LastCheck: time.Now(), Status: "healthy", Message: name + " connection active"}

	if err := ping(ctx); err != nil {
		h.Status = "unhealthy"
		h.Message = "database ping failed"
		h.Error = err.Error()
		return h
	}
	if err := query(ctx); err != nil {
		h.Status = "unhealthy"
		h.Message = "database query test failed"
		h.Error = err.Error()
	}
	return h
}
