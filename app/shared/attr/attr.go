package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Thin wrappers over slog attribute constructors so call sites stay uniform
// across modules.

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func UUID(key string, id uuid.UUID) slog.Attr { return slog.String(key, id.String()) }

type correlationIDKey struct{}

// WithCorrelationID stamps a correlation id onto the context for downstream logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ExtractCorrelationID pulls the correlation id from the context, if present.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", id)
	}
	return slog.String("correlation_id", "")
}
