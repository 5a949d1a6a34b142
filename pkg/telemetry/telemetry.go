// Package telemetry is the crash and telemetry collector seam. Stores never
// call it directly; it observes activity events and effect failures.
package telemetry

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-appstate/pkg/activity"
)

// Collector receives breadcrumbs and recorded errors.
type Collector interface {
	Log(msg string)
	RecordError(err error)
}

// SlogCollector writes breadcrumbs at info and errors at error level.
type SlogCollector struct {
	Logger *slog.Logger
}

func (c SlogCollector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c SlogCollector) Log(msg string) {
	c.logger().Info(msg, "component", "telemetry")
}

func (c SlogCollector) RecordError(err error) {
	if err == nil {
		return
	}
	c.logger().Error("recorded error", "component", "telemetry", "error", err)
}

// Memory keeps everything in memory.
type Memory struct {
	mu     sync.Mutex
	logs   []string
	errors []error
}

func (m *Memory) Log(msg string) {
	m.mu.Lock()
	m.logs = append(m.logs, msg)
	m.mu.Unlock()
}

func (m *Memory) RecordError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}

func (m *Memory) Logs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}

func (m *Memory) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errors...)
}

// Hook turns activity events into collector breadcrumbs such as
// "state.updated locale [selectedLocale]".
type Hook struct {
	Collector Collector
}

func (h Hook) Notify(_ context.Context, event activity.Event) error {
	if h.Collector == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(event.Verb)
	b.WriteByte(' ')
	b.WriteString(event.ObjectID)
	if fields, ok := event.Metadata["fields"].([]string); ok && len(fields) > 0 {
		sorted := append([]string(nil), fields...)
		sort.Strings(sorted)
		b.WriteString(" [")
		b.WriteString(strings.Join(sorted, " "))
		b.WriteByte(']')
	}
	h.Collector.Log(b.String())
	return nil
}
