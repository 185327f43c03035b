package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotStore persists accessory snapshots between process restarts.
//
// The persisted state is a best-effort cache seed, never authoritative:
// a loaded snapshot is always re-verified against a transport before being
// trusted as current.
type SnapshotStore interface {
	// Save upserts the observed state for a device.
	Save(ctx context.Context, deviceID string, state map[string]any) error

	// Load returns the persisted observed state for a device.
	// Returns ErrSnapshotNotFound if no snapshot exists.
	Load(ctx context.Context, deviceID string) (map[string]any, error)

	// Delete removes a device's persisted snapshot.
	Delete(ctx context.Context, deviceID string) error
}

// SQLiteSnapshotStore implements SnapshotStore using SQLite.
//
// State is stored as JSON in the device_snapshots table.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore creates a new SQLite snapshot store.
func NewSQLiteSnapshotStore(db *sql.DB) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{db: db}
}

// Save upserts the observed state for a device.
func (r *SQLiteSnapshotStore) Save(ctx context.Context, deviceID string, state map[string]any) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if state == nil {
		state = map[string]any{}
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO device_snapshots (device_id, state, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		deviceID,
		string(stateJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	return nil
}

// Load returns the persisted observed state for a device.
func (r *SQLiteSnapshotStore) Load(ctx context.Context, deviceID string) (map[string]any, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	var stateJSON string
	err := r.db.QueryRowContext(ctx,
		"SELECT state FROM device_snapshots WHERE device_id = ?",
		deviceID,
	).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		// A corrupt seed is not worth failing startup over; treat it as absent.
		return nil, ErrSnapshotNotFound
	}

	return state, nil
}

// Delete removes a device's persisted snapshot.
func (r *SQLiteSnapshotStore) Delete(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM device_snapshots WHERE device_id = ?",
		deviceID,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	return nil
}
