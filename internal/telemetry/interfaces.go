package telemetry

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// StandardLogger exposes the wrapped logger for components that need one.
func (l *loggerAdapter) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// DiscardLogger drops every line.
func DiscardLogger() Logger {
	return LoggerFunc(func(string, ...any) {})
}

// Metrics exposes the counter methods required by server components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// Counters is an in-process Metrics implementation backing the diagnostics
// endpoint.
type Counters struct {
	values sync.Map
}

// NewCounters constructs an empty counter set.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) counter(key string) *atomic.Uint64 {
	if existing, ok := c.values.Load(key); ok {
		return existing.(*atomic.Uint64)
	}
	actual, _ := c.values.LoadOrStore(key, new(atomic.Uint64))
	return actual.(*atomic.Uint64)
}

func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.counter(key).Add(delta)
}

func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.counter(key).Store(value)
}

// Load returns the current value of key.
func (c *Counters) Load(key string) uint64 {
	if c == nil {
		return 0
	}
	if existing, ok := c.values.Load(key); ok {
		return existing.(*atomic.Uint64).Load()
	}
	return 0
}

// Snapshot copies every counter, keyed by name.
func (c *Counters) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	if c == nil {
		return out
	}
	c.values.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return out
}

// Keys lists counter names in sorted order.
func (c *Counters) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
