package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/queries"
)

// Logging records every dispatched command with its outcome.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return CommandBusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.InfoContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}

// QueryLogging only reports failures; reads are too frequent to log individually.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return QueryBusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := next.Ask(ctx, q)
			if err != nil {
				logger.DebugContext(ctx, "query failed", "query", q.Key(), "error", err)
			}
			return res, err
		})
	}
}
