package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/vmodel/pkg/model"
)

// Logger returns an interceptor that logs every action at debug level and
// failed actions at error level. A nil logger uses slog.Default.
func Logger(logger *slog.Logger) model.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "model")

	return func(ctx context.Context, call model.Call, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)

		attrs := []any{
			"model", call.Model,
			"action", call.Action,
			"async", call.Async,
			"duration", time.Since(start),
		}
		if err != nil {
			logger.ErrorContext(ctx, "action failed", append(attrs, "error", err)...)
			return err
		}
		logger.DebugContext(ctx, "action", attrs...)
		return nil
	}
}
