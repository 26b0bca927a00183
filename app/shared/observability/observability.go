package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the logger, metrics registry, and tracer handed to the
// modules. Constructed once per process and passed by parameter, never reached
// for through globals.
type Observability struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Tracer   trace.Tracer
}

// NoOpLogger discards everything; used in tests.
var NoOpLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// New builds the process observability stack: a JSON slog logger on stdout, a
// prometheus registry pre-loaded with Go runtime collectors, and an otel tracer.
func New(serviceName string, level slog.Level) *Observability {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Observability{
		Logger:   logger,
		Registry: registry,
		Tracer:   otel.Tracer(serviceName),
	}
}
