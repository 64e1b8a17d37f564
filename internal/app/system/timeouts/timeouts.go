// Package timeouts holds the durations used with context.WithTimeout around
// MongoDB calls. Handlers and commands read them through the getters so one
// Configure call at startup adjusts every call site.
//
//   - Ping: health checks
//   - Short: single-document reads
//   - Medium: list queries and simple writes
//   - Long: report runs and other multi-collection work
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 60 * time.Second
)

// Config holds timeout overrides. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

func Ping() time.Duration   { return Current().Ping }
func Short() time.Duration  { return Current().Short }
func Medium() time.Duration { return Current().Medium }
func Long() time.Duration   { return Current().Long }

// Configure applies the non-zero fields of c.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Ping > 0 {
		cur.Ping = c.Ping
	}
	if c.Short > 0 {
		cur.Short = c.Short
	}
	if c.Medium > 0 {
		cur.Medium = c.Medium
	}
	if c.Long > 0 {
		cur.Long = c.Long
	}
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Reset restores the defaults. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}
