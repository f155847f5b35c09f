package store

import (
	"context"
	"strings"
	"time"

	"apiloader/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement round trip
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement when SQL logging is enabled
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL, independent of the
// process-wide root level. Slow statements log at warn
func Tracer(root logger.Logger, component string) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", component).Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("sql query")
}

// compact folds runs of whitespace into a single space
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// traceHook is shared by the adapters; nil tracer makes it a no-op
type traceHook struct {
	tracer QueryTracer
	slowUS int64
}

func newTraceHook(t QueryTracer, slowMs int) traceHook {
	if slowMs <= 0 {
		slowMs = 500
	}
	return traceHook{tracer: t, slowUS: int64(slowMs) * 1000}
}

func (h traceHook) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if h.tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	h.tracer.OnQuery(ctx, QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      elapsedUS >= h.slowUS,
	})
}
