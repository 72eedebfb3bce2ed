package engine

import (
	"bufio"
	"fmt"
	"os"

	"github.com/vkarasev/matchcore/internal/domain"
)

// EventLog is the append-only in-memory record of NEW/CANCEL/AMEND/FILL
// events, per §4.8/C6. It uses a line-oriented CSV-like textual form on
// save/load rather than encoding/csv's quoting machinery, because every
// field here is a plain enum or number -- no embedded commas or newlines are
// ever possible, so there is nothing for a CSV quoting layer to protect
// against; no CSV library is present anywhere in the retrieved corpus
// either, so this stays on the standard library for the line I/O and hands
// off to domain.OrderEvent for the encode/decode of each line.
type EventLog struct {
	enabled bool
	events  []domain.OrderEvent
}

// NewEventLog constructs a disabled event log, matching the original's
// default-off logging_enabled_ flag.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Enable turns logging on; EnableLogging().
func (l *EventLog) Enable() { l.enabled = true }

// Disable turns logging off; DisableLogging().
func (l *EventLog) Disable() { l.enabled = false }

// Enabled reports whether logging is currently on.
func (l *EventLog) Enabled() bool { return l.enabled }

// Append records an event if logging is enabled; it is a no-op otherwise.
func (l *EventLog) Append(e domain.OrderEvent) {
	if !l.enabled {
		return
	}
	l.events = append(l.events, e)
}

// Events returns every recorded event, oldest first.
func (l *EventLog) Events() []domain.OrderEvent {
	return l.events
}

// Clear truncates the in-memory log without touching the enabled flag,
// matching clear_events().
func (l *EventLog) Clear() {
	l.events = nil
}

// Save writes the event log to path as a header line followed by one CSV
// line per event, per §6.3.
func (l *EventLog) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: save events: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, domain.CSVHeader); err != nil {
		return fmt.Errorf("engine: save events: write header: %w", err)
	}
	for _, e := range l.events {
		if _, err := fmt.Fprintln(w, e.ToCSV()); err != nil {
			return fmt.Errorf("engine: save events: write event: %w", err)
		}
	}
	return w.Flush()
}

// LoadEvents parses an event file written by Save into an ordered slice,
// used both to rehydrate an EventLog and by the replay engine (C9), which
// operates on the parsed stream independently of any live EventLog.
func LoadEvents(path string) ([]domain.OrderEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine: load events: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("engine: load events: empty file")
	}
	if scanner.Text() != domain.CSVHeader {
		return nil, fmt.Errorf("engine: load events: unrecognized header")
	}

	var events []domain.OrderEvent
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e, err := domain.EventFromCSV(line)
		if err != nil {
			return nil, fmt.Errorf("engine: load events: %w", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine: load events: %w", err)
	}
	return events, nil
}
