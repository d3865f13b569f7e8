package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/streamstore/es"
)

// registry performs the bookkeeping reads and writes against the
// projections table on behalf of a single projection. All statements are
// written with ? placeholders and rebound per dialect.
type registry struct {
	db      es.DBTX
	table   string
	name    string
	dialect Dialect
}

func (r registry) exists(ctx context.Context) (bool, error) {
	query := r.dialect.rebind(fmt.Sprintf("SELECT 1 FROM %s WHERE name = ?", r.table))

	var one int
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence of projection %s: %w", r.name, err)
	}
	return true, nil
}

// create inserts the projection row with empty position and state. A
// concurrent processor may have inserted the row first; the duplicate key
// failure (and any other insert failure) is ignored here because
// acquireLock reports the actionable error right after.
func (r registry) create(ctx context.Context, status Status) {
	query := r.dialect.rebind(fmt.Sprintf(
		"INSERT INTO %s (name, position, state, status, locked_until) VALUES (?, '{}', '{}', ?, NULL)", r.table))

	_, _ = r.db.ExecContext(ctx, query, r.name, string(status))
}

// fetchStatus reads the remote status. A missing row reads as running so
// the processing loop carries on; it will be recreated on the next run.
func (r registry) fetchStatus(ctx context.Context) (Status, error) {
	query := r.dialect.rebind(fmt.Sprintf("SELECT status FROM %s WHERE name = ? LIMIT 1", r.table))

	var raw string
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusRunning, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch status of projection %s: %w", r.name, err)
	}
	return ParseStatus(raw)
}

// load reads the persisted stream positions and state. A missing row
// returns empty values.
func (r registry) load(ctx context.Context) (map[string]int64, map[string]any, error) {
	query := r.dialect.rebind(fmt.Sprintf("SELECT position, state FROM %s WHERE name = ? LIMIT 1", r.table))

	var positionJSON, stateJSON []byte
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&positionJSON, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load projection %s: %w", r.name, err)
	}

	positions, err := DecodeStreamPositions(positionJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode positions of projection %s: %w", r.name, err)
	}

	var state map[string]any
	if len(stateJSON) > 0 {
		state, err = es.DecodeJSON(stateJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode state of projection %s: %w", r.name, err)
		}
	}
	return positions, state, nil
}

// acquireLock claims the lease row. The guard only matches when the row is
// unlocked or the previous lease expired, so exactly one processor wins.
func (r registry) acquireLock(ctx context.Context, now, until time.Time) error {
	query := r.dialect.rebind(fmt.Sprintf(
		"UPDATE %s SET locked_until = ?, status = ? WHERE name = ? AND (locked_until IS NULL OR locked_until < ?)", r.table))

	result, err := r.db.ExecContext(ctx, query,
		until.Format(es.DateTimeLayout), string(StatusRunning), r.name, now.Format(es.DateTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to acquire lock for projection %s: %w", r.name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to acquire lock for projection %s: %w", r.name, err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: %s", ErrProjectionRunning, r.name)
	}
	return nil
}

// renewLock extends the current lease without touching position or state.
func (r registry) renewLock(ctx context.Context, until time.Time) error {
	query := r.dialect.rebind(fmt.Sprintf("UPDATE %s SET locked_until = ? WHERE name = ?", r.table))

	result, err := r.db.ExecContext(ctx, query, until.Format(es.DateTimeLayout), r.name)
	if err != nil {
		return fmt.Errorf("failed to renew lock for projection %s: %w", r.name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to renew lock for projection %s: %w", r.name, err)
	}
	if affected != 1 {
		return fmt.Errorf("failed to renew lock for projection %s: row is gone", r.name)
	}
	return nil
}

// persist checkpoints positions and state and extends the lease in the same
// statement.
func (r registry) persist(ctx context.Context, positions map[string]int64, state map[string]any, until time.Time) error {
	positionJSON, err := es.EncodeJSON(positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions of projection %s: %w", r.name, err)
	}
	stateJSON, err := es.EncodeJSON(state)
	if err != nil {
		return fmt.Errorf("failed to encode state of projection %s: %w", r.name, err)
	}

	query := r.dialect.rebind(fmt.Sprintf(
		"UPDATE %s SET position = ?, state = ?, locked_until = ? WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, positionJSON, stateJSON, until.Format(es.DateTimeLayout), r.name); err != nil {
		return fmt.Errorf("failed to persist projection %s: %w", r.name, err)
	}
	return nil
}

func (r registry) updateStatus(ctx context.Context, status Status) error {
	query := r.dialect.rebind(fmt.Sprintf("UPDATE %s SET status = ? WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, string(status), r.name); err != nil {
		return fmt.Errorf("failed to update status of projection %s: %w", r.name, err)
	}
	return nil
}

// startAgain reclaims a fresh lease after an external reset while running.
func (r registry) startAgain(ctx context.Context, until time.Time) error {
	query := r.dialect.rebind(fmt.Sprintf("UPDATE %s SET status = ?, locked_until = ? WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, string(StatusRunning), until.Format(es.DateTimeLayout), r.name); err != nil {
		return fmt.Errorf("failed to restart projection %s: %w", r.name, err)
	}
	return nil
}

// releaseLock clears the lease and writes the given status.
func (r registry) releaseLock(ctx context.Context, status Status) error {
	query := r.dialect.rebind(fmt.Sprintf("UPDATE %s SET locked_until = NULL, status = ? WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, string(status), r.name); err != nil {
		return fmt.Errorf("failed to release lock for projection %s: %w", r.name, err)
	}
	return nil
}

// releaseLockKeepStatus clears the lease but leaves the status untouched.
func (r registry) releaseLockKeepStatus(ctx context.Context) error {
	query := r.dialect.rebind(fmt.Sprintf("UPDATE %s SET locked_until = NULL WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, r.name); err != nil {
		return fmt.Errorf("failed to release lock for projection %s: %w", r.name, err)
	}
	return nil
}

// reset overwrites positions and state and writes the given status.
func (r registry) reset(ctx context.Context, positions map[string]int64, state map[string]any, status Status) error {
	positionJSON, err := es.EncodeJSON(positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions of projection %s: %w", r.name, err)
	}
	stateJSON, err := es.EncodeJSON(state)
	if err != nil {
		return fmt.Errorf("failed to encode state of projection %s: %w", r.name, err)
	}

	query := r.dialect.rebind(fmt.Sprintf(
		"UPDATE %s SET position = ?, state = ?, status = ? WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, positionJSON, stateJSON, string(status), r.name); err != nil {
		return fmt.Errorf("failed to reset projection %s: %w", r.name, err)
	}
	return nil
}

func (r registry) delete(ctx context.Context) error {
	query := r.dialect.rebind(fmt.Sprintf("DELETE FROM %s WHERE name = ?", r.table))

	if _, err := r.db.ExecContext(ctx, query, r.name); err != nil {
		return fmt.Errorf("failed to delete projection %s: %w", r.name, err)
	}
	return nil
}

// DecodeStreamPositions converts a persisted position document back into
// per-stream event numbers. Projection managers use it to expose the
// checkpointed positions of a projection.
func DecodeStreamPositions(data []byte) (map[string]int64, error) {
	positions := map[string]int64{}
	if len(data) == 0 {
		return positions, nil
	}
	raw, err := es.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	for stream, value := range raw {
		number, ok := value.(json.Number)
		if !ok {
			return nil, fmt.Errorf("unexpected position value %v for stream %s", value, stream)
		}
		position, err := number.Int64()
		if err != nil {
			return nil, fmt.Errorf("unexpected position value %v for stream %s: %w", value, stream, err)
		}
		positions[stream] = position
	}
	return positions, nil
}
