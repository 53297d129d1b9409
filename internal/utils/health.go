package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const probeTimeout = 2 * time.Second

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  []Service `json:"services"`
}

type Service struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Pinger is anything that can confirm it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes the backing stores. Nil dependencies are skipped,
// not reported as down.
type HealthChecker struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Archive Pinger
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}

	probes := []struct {
		name  string
		probe func(context.Context) error
	}{
		{"PostgreSQL", h.pingDB},
		{"Redis", h.pingRedis},
		{"ReportArchive", h.pingArchive},
	}

	for _, p := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.probe(probeCtx)
		cancel()
		if err == errSkipped {
			continue
		}

		svc := Service{Name: p.name, Status: "up"}
		if err != nil {
			svc.Status = "down"
			svc.Message = err.Error()
			status.Status = "degraded"
		}
		status.Services = append(status.Services, svc)
	}

	return status
}

var errSkipped = errors.New("probe skipped")

func (h *HealthChecker) pingDB(ctx context.Context) error {
	if h.DB == nil {
		return errSkipped
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthChecker) pingRedis(ctx context.Context) error {
	if h.Redis == nil {
		return errSkipped
	}
	return h.Redis.Ping(ctx).Err()
}

func (h *HealthChecker) pingArchive(ctx context.Context) error {
	if h.Archive == nil {
		return errSkipped
	}
	return h.Archive.Ping(ctx)
}
