package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vkarasev/matchcore/internal/domain"
)

// ReplaySpeedInstant disables the inter-event sleep in Replay's timed mode,
// making it behave like instant replay while still going through the
// same progress/logging path.
const ReplaySpeedInstant = 0.0

// Replay drives a fresh Engine over a previously recorded event stream
// (C9), grounded on the original's ReplayEngine: a loaded event slice plus
// a cursor (current_idx_), three playback modes, and manual stepping
// primitives that all funnel through the same one-event application path.
type Replay struct {
	engine *Engine
	events []domain.OrderEvent
	cursor int

	eventsProcessed int
	fillsAtStart    int
	startTime       time.Time

	logger zerolog.Logger
}

// NewReplay constructs a Replay that will apply events onto target. target
// should be a freshly constructed Engine of the same Config as the engine
// that produced the events, per the determinism contract of §4.8.
func NewReplay(target *Engine) *Replay {
	return &Replay{
		engine: target,
		logger: target.cfg.Logger.With().Str("component", "replay").Logger(),
	}
}

// LoadFromFile parses the event file at path and resets the cursor to the
// beginning, per load_from_file.
func (r *Replay) LoadFromFile(path string) error {
	events, err := LoadEvents(path)
	if err != nil {
		return fmt.Errorf("engine: replay load: %w", err)
	}
	r.events = events
	r.Reset()
	r.logger.Debug().Int("events", len(events)).Str("path", path).Msg("loaded replay events")
	return nil
}

// LoadEvents installs an already-parsed event slice, for callers that read
// the file themselves (e.g. to stop at a snapshot boundary first).
func (r *Replay) LoadEvents(events []domain.OrderEvent) {
	r.events = events
	r.Reset()
}

// TotalEvents reports the length of the loaded event stream.
func (r *Replay) TotalEvents() int { return len(r.events) }

// CurrentIndex reports the cursor's current position.
func (r *Replay) CurrentIndex() int { return r.cursor }

// ProgressPercentage reports how far the cursor has advanced, 0 if the
// stream is empty.
func (r *Replay) ProgressPercentage() float64 {
	if len(r.events) == 0 {
		return 0
	}
	return float64(r.cursor) * 100 / float64(len(r.events))
}

// HasNext reports whether an unapplied event remains.
func (r *Replay) HasNext() bool { return r.cursor < len(r.events) }

// PeekNext returns the next event without applying it.
func (r *Replay) PeekNext() (domain.OrderEvent, bool) {
	if !r.HasNext() {
		return domain.OrderEvent{}, false
	}
	return r.events[r.cursor], true
}

// Next applies exactly one event and advances the cursor, per
// replay_next_event. It is a no-op returning false once the stream is
// exhausted.
func (r *Replay) Next() bool {
	if !r.HasNext() {
		return false
	}
	r.applyEvent(r.events[r.cursor])
	r.cursor++
	r.eventsProcessed++
	return true
}

// NEvents applies up to n events starting from the cursor, per
// replay_n_events.
func (r *Replay) NEvents(n int) int {
	applied := 0
	for applied < n && r.Next() {
		applied++
	}
	return applied
}

// Reset rewinds the cursor to the beginning and rebuilds the target engine
// from scratch, per reset_replay.
func (r *Replay) Reset() {
	r.cursor = 0
	r.eventsProcessed = 0
	*r.engine = *New(optionsFromConfig(r.engine.cfg)...)
	r.fillsAtStart = 0
}

// SkipTo jumps the cursor to idx, replaying from the beginning if idx lies
// before the current position (there is no way to undo an applied event),
// per skip_to_event.
func (r *Replay) SkipTo(idx int) error {
	if idx < 0 || idx > len(r.events) {
		return fmt.Errorf("engine: replay skip_to: index %d out of range [0,%d]", idx, len(r.events))
	}
	if idx < r.cursor {
		r.Reset()
	}
	for r.cursor < idx {
		r.Next()
	}
	return nil
}

// Instant applies every remaining event as fast as possible, per
// replay_instant.
func (r *Replay) Instant() {
	r.startTime = r.engine.now()
	r.logger.Debug().Msg("starting instant replay")
	for r.HasNext() {
		r.Next()
	}
}

// Timed applies every remaining event, sleeping ctx's caller between
// consecutive events by (event_gap / speedMultiplier), per replay_timed.
// speedMultiplier of ReplaySpeedInstant (0) disables the sleep. The sleep
// is the only blocking point the engine model produces (§5); ctx
// cancellation aborts the sleep and the replay early.
func (r *Replay) Timed(ctx context.Context, speedMultiplier float64) error {
	if !r.HasNext() {
		r.logger.Debug().Msg("no events to replay")
		return nil
	}
	r.startTime = r.engine.now()
	r.logger.Debug().Float64("speed", speedMultiplier).Msg("starting timed replay")

	lastEventTime := r.events[r.cursor].Timestamp
	first := true

	for r.HasNext() {
		ev, _ := r.PeekNext()

		if !first && speedMultiplier > 0 {
			gap := ev.Timestamp.Sub(lastEventTime)
			scaled := time.Duration(float64(gap) / speedMultiplier)
			timer := time.NewTimer(scaled)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		lastEventTime = ev.Timestamp
		first = false
		r.Next()
	}
	return nil
}

// StepResult is the outcome of one Step call, for an embedder driving
// stepped replay from a UI loop instead of the original's blocking stdin
// read in replay_step_by_step.
type StepResult struct {
	Event     domain.OrderEvent
	Index     int
	Total     int
	Exhausted bool
}

// Step applies exactly one event and reports what happened, for
// caller-controlled stepped replay (§4.8's "Stepped: apply events one at a
// time under caller control"). Unlike the original's interactive console
// loop, stepping is expressed as a plain method so an embedder can drive
// it from any control surface.
func (r *Replay) Step() StepResult {
	if !r.HasNext() {
		return StepResult{Total: len(r.events), Index: r.cursor, Exhausted: true}
	}
	ev, _ := r.PeekNext()
	idx := r.cursor
	r.Next()
	return StepResult{Event: ev, Index: idx, Total: len(r.events)}
}

// applyEvent replays one event onto the target engine, mirroring
// replay_event's NEW/CANCEL/AMEND/FILL dispatch. FILL events are not
// re-submitted (fills are a derived record, recomputed by the matching
// core); they only advance the processed counter.
func (r *Replay) applyEvent(ev domain.OrderEvent) {
	r.engine.applyIncrementalEvent(ev)
}

// EventsProcessed reports how many events this Replay has applied since
// the last Reset.
func (r *Replay) EventsProcessed() int { return r.eventsProcessed }

// ValidateAgainstOriginal compares the target engine's resulting fills
// against a previously recorded fills list, per validate_against_original.
// It returns a descriptive error on the first mismatch (or a count
// mismatch) and nil if every fill matches field-for-field in order.
func (r *Replay) ValidateAgainstOriginal(original []domain.Fill) error {
	replay := r.engine.Fills()
	if len(original) != len(replay) {
		return fmt.Errorf("engine: replay validation: fill count mismatch: original=%d replay=%d", len(original), len(replay))
	}
	for i := range original {
		o, rp := original[i], replay[i]
		if o.BuyOrderID != rp.BuyOrderID || o.SellOrderID != rp.SellOrderID ||
			o.Quantity != rp.Quantity || !o.Price.Equal(rp.Price) {
			return fmt.Errorf("engine: replay validation: mismatch at fill %d: original=%+v replay=%+v", i, o, rp)
		}
	}
	return nil
}

// optionsFromConfig rebuilds the Option list needed to reconstruct an
// equivalent fresh Engine for Reset, since Config itself already carries
// every knob New consults.
func optionsFromConfig(cfg Config) []Option {
	return []Option{
		WithSymbol(cfg.Symbol),
		WithSelfTradePrevention(cfg.SelfTradePrevention),
		WithFeeSchedule(cfg.MakerRate, cfg.TakerRate),
		WithLogger(cfg.Logger),
		WithClock(cfg.Clock),
		WithFillIDBase(cfg.FillIDBase),
	}
}
