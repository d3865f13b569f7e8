package projection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getpup/streamstore/es"
)

// sourceStreams describes where a projection reads from: explicit streams,
// whole categories, or every registered stream.
type sourceStreams struct {
	streams    []es.StreamName
	categories []string
	all        bool
}

func (s sourceStreams) configured() bool {
	return s.all || len(s.streams) > 0 || len(s.categories) > 0
}

// discoverPositions resolves the configured sources against the stream
// registry and returns the starting position per stream. Positions already
// tracked are preserved; newly discovered streams start at zero. Emitted
// streams (names starting with $) are never picked up by the all-streams
// source.
func discoverPositions(ctx context.Context, db es.DBTX, dialect Dialect, eventStreamsTable string, sources sourceStreams, current map[string]int64) (map[string]int64, error) {
	positions := map[string]int64{}

	switch {
	case sources.all:
		query := dialect.rebind(fmt.Sprintf(
			"SELECT real_stream_name FROM %s WHERE real_stream_name NOT LIKE '$%%'", eventStreamsTable))

		names, err := queryStreamNames(ctx, db, query)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			positions[name] = 0
		}

	case len(sources.categories) > 0:
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sources.categories)), ", ")
		query := dialect.rebind(fmt.Sprintf(
			"SELECT real_stream_name FROM %s WHERE category IN (%s)", eventStreamsTable, placeholders))

		args := make([]any, len(sources.categories))
		for i, category := range sources.categories {
			args[i] = category
		}
		names, err := queryStreamNames(ctx, db, query, args...)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			positions[name] = 0
		}

	default:
		for _, stream := range sources.streams {
			positions[string(stream)] = 0
		}
	}

	for name, position := range current {
		positions[name] = position
	}
	return positions, nil
}

func queryStreamNames(ctx context.Context, db es.DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to discover source streams: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan stream name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to discover source streams: %w", err)
	}
	return names, nil
}

// sleepContext pauses for the given duration, returning early when the
// context ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
