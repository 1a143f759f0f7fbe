package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tidecrest/aquafarm-backend/internal/platform/envutil"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// CapacityAlert is the event published when a tank crosses its density
// thresholds. Delivery (email, SMS, dashboards) is owned by the notification
// subsystem; this is only its interface boundary.
type CapacityAlert struct {
	TenantID            uuid.UUID `json:"tenant_id"`
	TankID              uuid.UUID `json:"tank_id"`
	BatchID             uuid.UUID `json:"batch_id"`
	Severity            string    `json:"severity"`
	DensityKgM3         float64   `json:"density_kg_m3"`
	MaxDensityKgM3      float64   `json:"max_density_kg_m3"`
	CapacityUsedPercent float64   `json:"capacity_used_percent"`
	Message             string    `json:"message"`
	OccurredAt          time.Time `json:"occurred_at"`
}

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

type AlertBus interface {
	PublishCapacityAlert(ctx context.Context, alert CapacityAlert) error
	Close() error
}

type alertBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewAlertBus connects to Redis and returns a publishing bus. Fails when
// REDIS_ADDR is unset; callers fall back to NewNoopAlertBus.
func NewAlertBus(log *logger.Logger) (AlertBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := envutil.String("REDIS_ALERT_CHANNEL", "capacity_alerts")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &alertBus{
		log:     log.With("service", "RedisAlertBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *alertBus) PublishCapacityAlert(ctx context.Context, alert CapacityAlert) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("alert bus not initialized")
	}
	if alert.OccurredAt.IsZero() {
		alert.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *alertBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

type noopAlertBus struct{}

// NewNoopAlertBus returns a bus that drops every alert. Used when Redis is not
// configured.
func NewNoopAlertBus() AlertBus { return noopAlertBus{} }

func (noopAlertBus) PublishCapacityAlert(context.Context, CapacityAlert) error { return nil }
func (noopAlertBus) Close() error                                              { return nil }
