// Package timeouts centralizes the deadlines used around database and
// chat operations.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, multi-document reads
//   - Long: operations touching several collections (accept, approve)
//   - ChatAppend: how long a chat send may take before the caller is told
//     to retry; the draft is kept on the client when this fires
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used when Configure is not called or a field is zero.
const (
	DefaultPing       = 2 * time.Second
	DefaultShort      = 5 * time.Second
	DefaultMedium     = 10 * time.Second
	DefaultLong       = 30 * time.Second
	DefaultChatAppend = 5 * time.Second
)

// Config holds timeout overrides. Zero values keep the current setting.
type Config struct {
	Ping       time.Duration
	Short      time.Duration
	Medium     time.Duration
	Long       time.Duration
	ChatAppend time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:       DefaultPing,
		Short:      DefaultShort,
		Medium:     DefaultMedium,
		Long:       DefaultLong,
		ChatAppend: DefaultChatAppend,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

// Ping returns the health-check timeout.
func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(func(c Config) time.Duration { return c.Short }) }

// Medium returns the timeout for list queries.
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }

// Long returns the timeout for multi-collection operations.
func Long() time.Duration { return get(func(c Config) time.Duration { return c.Long }) }

// ChatAppend returns the timeout for sending a chat message.
func ChatAppend() time.Duration { return get(func(c Config) time.Duration { return c.ChatAppend }) }

// Configure applies non-zero values from cfg. Call during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		cur.Long = cfg.Long
	}
	if cfg.ChatAppend > 0 {
		cur.ChatAppend = cfg.ChatAppend
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns a copy of the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout wraps context.WithTimeout and logs a warning from the
// returned cancel func when the deadline was the reason the work stopped.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "accept join request")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", d),
			)
		}
		cancel()
	}
}
