// Package fileio is the default SnapshotStore/EventStore: plain files on
// disk, adapted from the teacher's in_memory adapter's role as the
// zero-dependency baseline collaborator (internal/adapter/in_memory), but
// backed by the engine's own JSON snapshot codec and CSV-like event codec
// instead of an in-process map.
package fileio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vkarasev/matchcore/internal/domain"
	"github.com/vkarasev/matchcore/internal/port"
)

var _ port.SnapshotStore = (*Store)(nil)
var _ port.EventStore = (*Store)(nil)

// Store implements port.SnapshotStore and port.EventStore against the
// local filesystem. key is treated as a file path.
type Store struct{}

// NewStore constructs a file-backed store.
func NewStore() *Store { return &Store{} }

// SaveSnapshot writes snap to key as JSON, per §6.1's save_snapshot(path).
func (s *Store) SaveSnapshot(_ context.Context, key string, snap domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("fileio: save snapshot: %w", err)
	}
	if err := os.WriteFile(key, data, 0o644); err != nil {
		return fmt.Errorf("fileio: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates the snapshot file at key.
func (s *Store) LoadSnapshot(_ context.Context, key string) (domain.Snapshot, error) {
	data, err := os.ReadFile(key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fileio: load snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fileio: load snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fileio: load snapshot: %w", err)
	}
	return snap, nil
}

// SaveEvents writes events to key as a header line followed by one CSV
// line per event, per §6.3.
func (s *Store) SaveEvents(_ context.Context, key string, events []domain.OrderEvent) error {
	f, err := os.Create(key)
	if err != nil {
		return fmt.Errorf("fileio: save events: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, domain.CSVHeader); err != nil {
		return fmt.Errorf("fileio: save events: %w", err)
	}
	for _, e := range events {
		if _, err := fmt.Fprintln(f, e.ToCSV()); err != nil {
			return fmt.Errorf("fileio: save events: %w", err)
		}
	}
	return nil
}

// LoadEvents parses the event file at key.
func (s *Store) LoadEvents(_ context.Context, key string) ([]domain.OrderEvent, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("fileio: load events: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("fileio: load events: empty file")
	}
	if scanner.Text() != domain.CSVHeader {
		return nil, fmt.Errorf("fileio: load events: unrecognized header")
	}

	var events []domain.OrderEvent
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e, err := domain.EventFromCSV(line)
		if err != nil {
			return nil, fmt.Errorf("fileio: load events: %w", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fileio: load events: %w", err)
	}
	return events, nil
}
