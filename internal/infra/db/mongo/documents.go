package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"rentcal/internal/domain/shared/daterange"
)

// Dates are stored as ISO strings so range filters compare lexicographically.
func dateString(d daterange.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// parseDate returns the zero date for empty or malformed values; callers that
// need a valid date check IsZero.
func parseDate(s string) daterange.Date {
	if s == "" {
		return daterange.Date{}
	}
	d, err := daterange.ParseDate(s)
	if err != nil {
		return daterange.Date{}
	}
	return d
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type repoConfig struct {
	logger *slog.Logger
}

type RepositoryOption func(*repoConfig)

// WithLogger makes repositories report documents they could not decode.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(c *repoConfig) { c.logger = logger }
}

func newRepoConfig(opts []RepositoryOption) repoConfig {
	cfg := repoConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// decodeAll drains cur, skipping documents that fail to decode or convert.
func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, logger *slog.Logger, collection string, convert func(D) (T, error)) ([]T, error) {
	defer cur.Close(ctx)
	var out []T
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			logger.WarnContext(ctx, "skip undecodable document", slog.String("collection", collection), slog.Any("error", err))
			continue
		}
		item, err := convert(doc)
		if err != nil {
			logger.WarnContext(ctx, "skip invalid document", slog.String("collection", collection), slog.Any("error", err))
			continue
		}
		out = append(out, item)
	}
	return out, cur.Err()
}
