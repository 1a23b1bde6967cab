package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.molt.dev/molt/internal/core/ports"
	"go.molt.dev/molt/internal/ui/style"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Bridge implements sdktrace.SpanProcessor to report finished spans
// through the logger. Every ended span becomes a single line with the
// span name and its wall-clock duration, so a reload cycle reads as
//
//	✓ reload pages (4ms)
//	✓ reload (11ms)
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{
		logger: logger,
	}
}

// OnStart is called when a span starts. Starts are not announced; the
// reload pipeline logs its own progress before spans begin.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd reports the finished span's name and duration.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	icon := style.Check
	if s.Status().Code == codes.Error {
		icon = style.Cross
	}

	duration := s.EndTime().Sub(s.StartTime())
	b.logger.Info(fmt.Sprintf("%s %s (%s)", icon, s.Name(), formatDuration(duration)))
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// formatDuration renders sub-second durations in whole milliseconds and
// anything longer in seconds with two decimals.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
