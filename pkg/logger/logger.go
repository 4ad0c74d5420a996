package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Service string
	Level   string
	// Pretty switches to human readable console output.
	Pretty bool
	Output io.Writer
}

// New builds the service logger and installs it as the fallback for
// zerolog.Ctx on contexts that carry no logger.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(out).Level(level).With().Timestamp().Str("service", opts.Service).Logger()
	zerolog.DefaultContextLogger = &l
	return l
}

// FromContext returns the request scoped logger, falling back to the
// default one.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// TraceID extracts the OpenTelemetry trace id from ctx, if any.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Middleware stores a request logger carrying request and trace ids in the
// request context. It must run after chi's RequestID middleware.
func Middleware(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc := base.With().Str("request_id", middleware.GetReqID(r.Context()))
			if traceID := TraceID(r.Context()); traceID != "" {
				lc = lc.Str("trace_id", traceID)
			}
			l := lc.Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
		})
	}
}
