// Package cache wires Redis into Warbler. Redis only backs server-side sessions.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"warbler/internal/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const pingTimeout = 5 * time.Second

type metricsHook struct {
	errs *prometheus.CounterVec
}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.record(cmd.Name(), err)
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		h.record("pipeline", err)
		return err
	}
}

func (h metricsHook) record(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		h.errs.WithLabelValues(op).Inc()
	}
}

// Instrument counts failed Redis commands, excluding cache misses, in errs.
func Instrument(client *redis.Client, errs *prometheus.CounterVec) {
	if client == nil || errs == nil {
		return
	}
	client.AddHook(metricsHook{errs: errs})
}

// ParseOptions accepts either a redis:// URL or a bare host:port address.
// Maintenance notifications are off since not every server implements them.
func ParseOptions(addr string) (*redis.Options, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		var err error
		if opts, err = redis.ParseURL(addr); err != nil {
			return nil, err
		}
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}
	return opts, nil
}

// NewRedisClient connects to addr and pings it. It returns nil when Redis is
// unreachable so callers can fall back to in-memory sessions.
func NewRedisClient(addr string, errs *prometheus.CounterVec) *redis.Client {
	if strings.TrimSpace(addr) == "" {
		return nil
	}

	opts, err := ParseOptions(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing with memory sessions",
			slog.String("redis_url", addr), slog.String("error", err.Error()))
		return nil
	}

	client := redis.NewClient(opts)
	Instrument(client, errs)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unavailable, continuing with memory sessions",
			slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}

	middleware.Logger.Info("redis connected", slog.String("addr", opts.Addr))
	return client
}
