package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/telemetry"
)

var (
	// ErrUnknownLevel is returned when selecting an id that is not in the table.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrLevelLocked is returned when selecting a level whose predecessors are incomplete.
	ErrLevelLocked = errors.New("level is locked")
	// ErrLevelCompleted is returned when selecting a level that is already completed.
	ErrLevelCompleted = errors.New("level is already completed")
)

// Delays holds the feedback intervals before deferred transitions apply.
type Delays struct {
	Correct   time.Duration // Before a correctly answered level settles
	Incorrect time.Duration // Before incorrect feedback reverts to neutral
}

// DefaultDelays matches the glow and shake animation lengths.
var DefaultDelays = Delays{
	Correct:   800 * time.Millisecond,
	Incorrect: 500 * time.Millisecond,
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Machine owns the session state. It is not safe for concurrent use: every
// method, and every callback issued through its Scheduler, must run on the
// same goroutine.
type Machine struct {
	levels   []Level
	selected int // index into levels, -1 when on the map
	status   AnswerStatus
	complete bool

	scheduler  Scheduler
	delays     Delays
	generation uint64
	pending    Timer

	subscribers []subscriber
	nextSubID   int
}

// New creates a machine over the given level content. Progress flags on the
// input are ignored; the machine starts in the initial configuration.
func New(levels []Level, scheduler Scheduler, delays Delays) (*Machine, error) {
	if len(levels) == 0 {
		return nil, errors.New("progression: no levels")
	}
	if scheduler == nil {
		return nil, errors.New("progression: nil scheduler")
	}
	if delays.Correct < 0 || delays.Incorrect < 0 {
		return nil, fmt.Errorf("progression: negative delay %+v", delays)
	}

	owned := make([]Level, len(levels))
	for i, l := range levels {
		if l.ID != i+1 {
			return nil, fmt.Errorf("progression: level at position %d has id %d, want %d", i, l.ID, i+1)
		}
		owned[i] = l.clone()
	}

	m := &Machine{
		levels:    owned,
		scheduler: scheduler,
		delays:    delays,
	}
	m.resetState()
	return m, nil
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Levels:   make([]Level, len(m.levels)),
		Status:   m.status,
		Complete: m.complete,
	}
	for i, l := range m.levels {
		snap.Levels[i] = l.clone()
	}
	if m.selected >= 0 {
		sel := snap.Levels[m.selected]
		snap.Selected = &sel
	}
	return snap
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. The returned function removes the subscription.
func (m *Machine) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// SelectLevel makes the level with the given id the active quiz target.
// Only an unlocked, incomplete level may be selected; rejected calls leave
// the state untouched. A selection supersedes any pending transition.
func (m *Machine) SelectLevel(ctx context.Context, id int) error {
	_, span := telemetry.Tracer("progression").Start(ctx, "progression.select")
	defer span.End()
	span.SetAttributes(attribute.Int("level.id", id))

	idx := m.indexOf(id)
	switch {
	case idx < 0:
		span.SetAttributes(attribute.String("rejected", "unknown"))
		return fmt.Errorf("select level %d: %w", id, ErrUnknownLevel)
	case !m.levels[idx].Unlocked:
		span.SetAttributes(attribute.String("rejected", "locked"))
		return fmt.Errorf("select level %d: %w", id, ErrLevelLocked)
	case m.levels[idx].Completed:
		span.SetAttributes(attribute.String("rejected", "completed"))
		return fmt.Errorf("select level %d: %w", id, ErrLevelCompleted)
	}

	m.cancelPending()
	m.selected = idx
	m.status = StatusNeutral
	m.notify()
	return nil
}

// SubmitAnswer checks answer against the selected level by exact string
// equality. It does nothing when no level is selected or when a correct
// answer is already settling.
func (m *Machine) SubmitAnswer(ctx context.Context, answer string) {
	if m.selected < 0 || m.status == StatusCorrect {
		return
	}

	ctx, span := telemetry.Tracer("progression").Start(ctx, "progression.answer")
	defer span.End()

	level := m.levels[m.selected]
	correct := answer == level.CorrectAnswer
	span.SetAttributes(
		attribute.Int("level.id", level.ID),
		attribute.Bool("answer.correct", correct),
	)

	m.cancelPending()
	gen := m.generation
	idx := m.selected

	if correct {
		m.status = StatusCorrect
		m.pending = m.scheduler.AfterFunc(m.delays.Correct, func() {
			if m.generation != gen || m.selected != idx || m.status != StatusCorrect {
				return
			}
			m.settle(ctx, idx)
		})
	} else {
		m.status = StatusIncorrect
		m.pending = m.scheduler.AfterFunc(m.delays.Incorrect, func() {
			if m.generation != gen || m.status != StatusIncorrect {
				return
			}
			m.pending = nil
			m.status = StatusNeutral
			m.notify()
		})
	}
	m.notify()
}

// ClearSelection returns to the map without touching level progress.
// It refuses while a correct answer is settling and reports whether the
// selection was cleared.
func (m *Machine) ClearSelection(ctx context.Context) bool {
	if m.selected < 0 || m.status == StatusCorrect {
		return false
	}
	_, span := telemetry.Tracer("progression").Start(ctx, "progression.clear")
	span.SetAttributes(attribute.Int("level.id", m.levels[m.selected].ID))
	span.End()

	m.cancelPending()
	m.selected = -1
	m.status = StatusNeutral
	m.notify()
	return true
}

// Reset returns the session to its initial configuration: only the first
// level unlocked, nothing completed, nothing selected. It is idempotent.
func (m *Machine) Reset(ctx context.Context) {
	_, span := telemetry.Tracer("progression").Start(ctx, "progression.reset")
	before := m.Snapshot()
	span.SetAttributes(
		attribute.String("phase", before.Phase().String()),
		attribute.Int("levels.completed", before.CompletedCount()),
	)
	span.End()

	m.cancelPending()
	m.resetState()
	m.notify()
}

// settle applies a correct answer once its feedback delay has elapsed.
func (m *Machine) settle(ctx context.Context, idx int) {
	m.pending = nil
	m.levels[idx].Completed = true

	next := idx + 1
	if next < len(m.levels) {
		m.levels[next].Unlocked = true
	} else {
		m.complete = true
	}
	m.selected = -1
	m.status = StatusNeutral

	_, span := telemetry.Tracer("progression").Start(ctx, "progression.settle")
	span.SetAttributes(
		attribute.Int("level.id", m.levels[idx].ID),
		attribute.Bool("game.complete", m.complete),
	)
	span.End()

	m.notify()
}

// cancelPending stops any deferred transition and invalidates callbacks
// that may already be in flight.
func (m *Machine) cancelPending() {
	m.generation++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Machine) resetState() {
	for i := range m.levels {
		m.levels[i].Completed = false
		m.levels[i].Unlocked = i == 0
	}
	m.selected = -1
	m.status = StatusNeutral
	m.complete = false
}

func (m *Machine) indexOf(id int) int {
	for i := range m.levels {
		if m.levels[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Machine) notify() {
	if len(m.subscribers) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, s := range append([]subscriber(nil), m.subscribers...) {
		s.fn(snap)
	}
}
