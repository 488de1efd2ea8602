package progression_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression/progressiontest"
)

func detroitLevels() []progression.Level {
	return []progression.Level{
		{ID: 1, Question: "Detroit is known as the ___ City.", Options: []string{"Windy", "Motor", "Emerald", "Forest"}, CorrectAnswer: "Motor"},
		{ID: 2, Question: "Which river separates Detroit from Windsor?", Options: []string{"Hudson", "Mississippi", "Detroit", "St. Lawrence"}, CorrectAnswer: "Detroit"},
		{ID: 3, Question: "What year was the city of Detroit founded?", Options: []string{"1601", "1701", "1801", "1901"}, CorrectAnswer: "1701"},
	}
}

func newTestMachine(t *testing.T) (*progression.Machine, *progressiontest.Loop) {
	t.Helper()
	sched := progressiontest.NewLoop(t)
	m, err := progression.New(detroitLevels(), sched, progression.DefaultDelays)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return m, sched
}

// checkUnlockInvariant verifies that a level is unlocked iff every earlier
// level is completed.
func checkUnlockInvariant(t *testing.T, snap progression.Snapshot) {
	t.Helper()
	allBefore := true
	for _, l := range snap.Levels {
		if l.Unlocked != allBefore {
			t.Fatalf("level %d unlocked = %v, want %v (levels: %+v)", l.ID, l.Unlocked, allBefore, snap.Levels)
		}
		if l.Completed && !l.Unlocked {
			t.Fatalf("level %d completed but locked", l.ID)
		}
		allBefore = allBefore && l.Completed
	}
}

func checkInitial(t *testing.T, snap progression.Snapshot) {
	t.Helper()
	for i, l := range snap.Levels {
		if l.Completed {
			t.Errorf("level %d completed after reset", l.ID)
		}
		if l.Unlocked != (i == 0) {
			t.Errorf("level %d unlocked = %v after reset, want %v", l.ID, l.Unlocked, i == 0)
		}
	}
	if snap.Complete {
		t.Error("Complete = true after reset")
	}
	if snap.Selected != nil {
		t.Errorf("Selected = %+v after reset, want nil", snap.Selected)
	}
	if snap.Status != progression.StatusNeutral {
		t.Errorf("Status = %v after reset, want neutral", snap.Status)
	}
}

func TestAnswerStatusString(t *testing.T) {
	tests := []struct {
		status   progression.AnswerStatus
		expected string
	}{
		{progression.StatusNeutral, "neutral"},
		{progression.StatusCorrect, "correct"},
		{progression.StatusIncorrect, "incorrect"},
		{progression.AnswerStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("AnswerStatus(%d).String() = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    progression.Phase
		expected string
	}{
		{progression.PhaseOnMap, "on_map"},
		{progression.PhaseAnswering, "answering"},
		{progression.PhaseVictory, "victory"},
		{progression.Phase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.expected)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	sched := progressiontest.NewLoop(t)

	if _, err := progression.New(nil, sched, progression.DefaultDelays); err == nil {
		t.Error("New() with no levels should fail")
	}
	if _, err := progression.New(detroitLevels(), nil, progression.DefaultDelays); err == nil {
		t.Error("New() with nil scheduler should fail")
	}
	if _, err := progression.New(detroitLevels(), sched, progression.Delays{Correct: -time.Second}); err == nil {
		t.Error("New() with negative delay should fail")
	}

	gap := detroitLevels()
	gap[2].ID = 4
	if _, err := progression.New(gap, sched, progression.DefaultDelays); err == nil {
		t.Error("New() with non-contiguous ids should fail")
	}
}

func TestNewStartsInInitialConfiguration(t *testing.T) {
	levels := detroitLevels()
	levels[1].Unlocked = true
	levels[2].Completed = true

	m, err := progression.New(levels, progressiontest.NewLoop(t), progression.DefaultDelays)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	snap := m.Snapshot()
	checkInitial(t, snap)
	if m.Snapshot().Phase() != progression.PhaseOnMap {
		t.Errorf("Phase() = %v, want on_map", m.Snapshot().Phase())
	}
	if snap.Frontier() != 0 {
		t.Errorf("Frontier() = %d, want 0", snap.Frontier())
	}
}

func TestDetroitScenario(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)

	// Level 1, correct answer
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Motor")

	snap := m.Snapshot()
	if snap.Status != progression.StatusCorrect {
		t.Errorf("Status after correct answer = %v, want correct", snap.Status)
	}
	if snap.Levels[0].Completed {
		t.Error("level 1 completed before the delay elapsed")
	}

	sched.Advance(progression.DefaultDelays.Correct)

	snap = m.Snapshot()
	if !snap.Levels[0].Completed || !snap.Levels[1].Unlocked {
		t.Errorf("after level 1: completed=%v level2 unlocked=%v", snap.Levels[0].Completed, snap.Levels[1].Unlocked)
	}
	if snap.Selected != nil {
		t.Error("selection not cleared after level 1 settled")
	}
	if snap.Status != progression.StatusNeutral {
		t.Errorf("Status after settle = %v, want neutral", snap.Status)
	}
	checkUnlockInvariant(t, snap)

	// Level 2, wrong answer first
	if err := m.SelectLevel(ctx, 2); err != nil {
		t.Fatalf("SelectLevel(2) error: %v", err)
	}
	before := m.Snapshot()
	m.SubmitAnswer(ctx, "Hudson")

	snap = m.Snapshot()
	if snap.Status != progression.StatusIncorrect {
		t.Errorf("Status after wrong answer = %v, want incorrect", snap.Status)
	}
	sched.Advance(progression.DefaultDelays.Incorrect)

	snap = m.Snapshot()
	if snap.Status != progression.StatusNeutral {
		t.Errorf("Status after incorrect delay = %v, want neutral", snap.Status)
	}
	if snap.Selected == nil || snap.Selected.ID != 2 {
		t.Errorf("Selected after wrong answer = %+v, want level 2", snap.Selected)
	}
	for i := range snap.Levels {
		if snap.Levels[i].Completed != before.Levels[i].Completed || snap.Levels[i].Unlocked != before.Levels[i].Unlocked {
			t.Errorf("level %d flags changed after wrong answer", snap.Levels[i].ID)
		}
	}

	// Level 2, correct answer
	if err := m.SelectLevel(ctx, 2); err != nil {
		t.Fatalf("SelectLevel(2) again error: %v", err)
	}
	m.SubmitAnswer(ctx, "Detroit")
	sched.Advance(progression.DefaultDelays.Correct)

	snap = m.Snapshot()
	if !snap.Levels[1].Completed || !snap.Levels[2].Unlocked {
		t.Errorf("after level 2: completed=%v level3 unlocked=%v", snap.Levels[1].Completed, snap.Levels[2].Unlocked)
	}
	checkUnlockInvariant(t, snap)

	// Level 3, final
	if err := m.SelectLevel(ctx, 3); err != nil {
		t.Fatalf("SelectLevel(3) error: %v", err)
	}
	m.SubmitAnswer(ctx, "1701")
	if m.Snapshot().Phase() != progression.PhaseAnswering {
		t.Errorf("Phase() before settle = %v, want answering", m.Snapshot().Phase())
	}
	sched.Advance(progression.DefaultDelays.Correct)

	snap = m.Snapshot()
	if !snap.Levels[2].Completed {
		t.Error("level 3 not completed")
	}
	if !snap.Complete {
		t.Error("Complete = false after last level")
	}
	if snap.Phase() != progression.PhaseVictory {
		t.Errorf("Phase() = %v, want victory", snap.Phase())
	}
	if snap.Frontier() != -1 {
		t.Errorf("Frontier() = %d, want -1", snap.Frontier())
	}
	if snap.CompletedCount() != 3 {
		t.Errorf("CompletedCount() = %d, want 3", snap.CompletedCount())
	}
	checkUnlockInvariant(t, snap)
}

func TestSelectLevelRejections(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)

	tests := []struct {
		id   int
		want error
	}{
		{2, progression.ErrLevelLocked},
		{3, progression.ErrLevelLocked},
		{0, progression.ErrUnknownLevel},
		{42, progression.ErrUnknownLevel},
	}

	for _, tt := range tests {
		err := m.SelectLevel(ctx, tt.id)
		if !errors.Is(err, tt.want) {
			t.Errorf("SelectLevel(%d) error = %v, want %v", tt.id, err, tt.want)
		}
		if m.Snapshot().Selected != nil {
			t.Errorf("SelectLevel(%d) changed the selection", tt.id)
		}
	}

	// A rejected selection keeps an existing one intact
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	if err := m.SelectLevel(ctx, 3); !errors.Is(err, progression.ErrLevelLocked) {
		t.Errorf("SelectLevel(3) error = %v, want ErrLevelLocked", err)
	}
	if sel := m.Snapshot().Selected; sel == nil || sel.ID != 1 {
		t.Errorf("Selected = %+v, want level 1", sel)
	}

	// Completed levels cannot be replayed
	m.SubmitAnswer(ctx, "Motor")
	sched.Advance(progression.DefaultDelays.Correct)
	if err := m.SelectLevel(ctx, 1); !errors.Is(err, progression.ErrLevelCompleted) {
		t.Errorf("SelectLevel(1) after completion error = %v, want ErrLevelCompleted", err)
	}
	if m.Snapshot().Selected != nil {
		t.Error("selecting a completed level changed the selection")
	}
}

func TestSubmitAnswerWithoutSelectionIsNoop(t *testing.T) {
	m, sched := newTestMachine(t)

	notified := 0
	m.Subscribe(func(progression.Snapshot) { notified++ })

	m.SubmitAnswer(context.Background(), "Motor")

	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sched.Pending())
	}
	if notified != 0 {
		t.Errorf("subscribers notified %d times, want 0", notified)
	}
	checkInitial(t, m.Snapshot())
}

func TestSubmitAnswerExactMatch(t *testing.T) {
	answers := []string{"motor", "MOTOR", " Motor", "Motor ", "Moto", "", "Detroit"}

	for _, answer := range answers {
		ctx := context.Background()
		m, sched := newTestMachine(t)
		if err := m.SelectLevel(ctx, 1); err != nil {
			t.Fatalf("SelectLevel(1) error: %v", err)
		}

		m.SubmitAnswer(ctx, answer)
		if got := m.Snapshot().Status; got != progression.StatusIncorrect {
			t.Errorf("SubmitAnswer(%q) status = %v, want incorrect", answer, got)
		}
		sched.Advance(time.Second)
		if m.Snapshot().Levels[0].Completed {
			t.Errorf("SubmitAnswer(%q) completed the level", answer)
		}
	}
}

func TestRepeatedWrongAnswersHaveNoPenalty(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	for i := 0; i < 10; i++ {
		m.SubmitAnswer(ctx, "Windy")
		sched.Advance(progression.DefaultDelays.Incorrect)
	}

	m.SubmitAnswer(ctx, "Motor")
	sched.Advance(progression.DefaultDelays.Correct)
	if !m.Snapshot().Levels[0].Completed {
		t.Error("level 1 not completed after wrong answers then the right one")
	}
}

func TestIncorrectSupersedesPendingRevert(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	m.SubmitAnswer(ctx, "Windy")
	sched.Advance(300 * time.Millisecond)
	m.SubmitAnswer(ctx, "Forest")

	// The first revert would have fired here
	sched.Advance(300 * time.Millisecond)
	if got := m.Snapshot().Status; got != progression.StatusIncorrect {
		t.Errorf("Status = %v, want incorrect until the second feedback ends", got)
	}

	sched.Advance(200 * time.Millisecond)
	if got := m.Snapshot().Status; got != progression.StatusNeutral {
		t.Errorf("Status = %v, want neutral", got)
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sched.Pending())
	}
}

func TestCorrectAnswerAfterWrongCancelsRevert(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	m.SubmitAnswer(ctx, "Windy")
	m.SubmitAnswer(ctx, "Motor")

	// The stale revert must not knock the status back to neutral
	sched.Advance(progression.DefaultDelays.Incorrect)
	if got := m.Snapshot().Status; got != progression.StatusCorrect {
		t.Errorf("Status = %v, want correct", got)
	}

	sched.Advance(progression.DefaultDelays.Correct)
	if !m.Snapshot().Levels[0].Completed {
		t.Error("level 1 not completed")
	}
}

func TestSubmitWhileSettlingIsIgnored(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	m.SubmitAnswer(ctx, "Motor")
	m.SubmitAnswer(ctx, "Windy")
	if got := m.Snapshot().Status; got != progression.StatusCorrect {
		t.Errorf("Status = %v, want correct", got)
	}
	if sched.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", sched.Pending())
	}

	sched.Advance(progression.DefaultDelays.Correct)
	snap := m.Snapshot()
	if !snap.Levels[0].Completed || !snap.Levels[1].Unlocked {
		t.Error("level 1 did not settle")
	}
}

func TestResetCancelsPendingTransition(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	m.SubmitAnswer(ctx, "Motor")
	m.Reset(ctx)
	sched.Advance(time.Second)

	checkInitial(t, m.Snapshot())
}

func TestStaleCallbackAfterStopFailure(t *testing.T) {
	ctx := context.Background()
	sched := &leakyScheduler{}
	m, err := progression.New(detroitLevels(), sched, progression.DefaultDelays)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Motor")
	m.Reset(ctx)

	// The timer could not be stopped; its callback still fires.
	sched.fireAll()
	checkInitial(t, m.Snapshot())

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Windy")
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) again error: %v", err)
	}
	m.SubmitAnswer(ctx, "Motor")
	sched.fireFirst() // stale incorrect revert
	if got := m.Snapshot().Status; got != progression.StatusCorrect {
		t.Errorf("stale revert changed status to %v", got)
	}
	sched.fireAll()
	if !m.Snapshot().Levels[0].Completed {
		t.Error("current correct transition did not apply")
	}
}

func TestSelectSupersedesPendingTransition(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}

	m.SubmitAnswer(ctx, "Motor")
	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) during settle error: %v", err)
	}
	sched.Advance(time.Second)

	snap := m.Snapshot()
	if snap.Levels[0].Completed {
		t.Error("superseded transition still completed the level")
	}
	if snap.Status != progression.StatusNeutral {
		t.Errorf("Status = %v, want neutral", snap.Status)
	}
	if snap.Selected == nil || snap.Selected.ID != 1 {
		t.Errorf("Selected = %+v, want level 1", snap.Selected)
	}
}

func TestClearSelection(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)

	if m.ClearSelection(ctx) {
		t.Error("ClearSelection() on the map should report false")
	}

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Windy")
	if !m.ClearSelection(ctx) {
		t.Fatal("ClearSelection() should clear a selection showing incorrect feedback")
	}
	sched.Advance(time.Second)
	snap := m.Snapshot()
	if snap.Selected != nil || snap.Status != progression.StatusNeutral {
		t.Errorf("after ClearSelection: selected=%+v status=%v", snap.Selected, snap.Status)
	}

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Motor")
	if m.ClearSelection(ctx) {
		t.Error("ClearSelection() should refuse while a correct answer settles")
	}
	sched.Advance(progression.DefaultDelays.Correct)
	if !m.Snapshot().Levels[0].Completed {
		t.Error("level 1 not completed")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)

	m.Reset(ctx)
	checkInitial(t, m.Snapshot())
	m.Reset(ctx)
	checkInitial(t, m.Snapshot())

	// From victory
	for _, l := range detroitLevels() {
		if err := m.SelectLevel(ctx, l.ID); err != nil {
			t.Fatalf("SelectLevel(%d) error: %v", l.ID, err)
		}
		m.SubmitAnswer(ctx, l.CorrectAnswer)
		sched.Advance(progression.DefaultDelays.Correct)
	}
	if m.Snapshot().Phase() != progression.PhaseVictory {
		t.Fatalf("Phase() = %v, want victory", m.Snapshot().Phase())
	}

	m.Reset(ctx)
	checkInitial(t, m.Snapshot())
	m.Reset(ctx)
	checkInitial(t, m.Snapshot())
	if m.Snapshot().Phase() != progression.PhaseOnMap {
		t.Errorf("Phase() after reset = %v, want on_map", m.Snapshot().Phase())
	}
}

func TestZeroDelaysKeepOrdering(t *testing.T) {
	ctx := context.Background()
	sched := progressiontest.NewLoop(t)
	m, err := progression.New(detroitLevels(), sched, progression.Delays{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Motor")
	if m.Snapshot().Levels[0].Completed {
		t.Error("level completed synchronously with a zero delay")
	}
	sched.Advance(0)
	if !m.Snapshot().Levels[0].Completed {
		t.Error("level not completed after advancing")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	m, sched := newTestMachine(t)

	var statuses []progression.AnswerStatus
	cancel := m.Subscribe(func(s progression.Snapshot) { statuses = append(statuses, s.Status) })

	if err := m.SelectLevel(ctx, 1); err != nil {
		t.Fatalf("SelectLevel(1) error: %v", err)
	}
	m.SubmitAnswer(ctx, "Windy")
	sched.Advance(progression.DefaultDelays.Incorrect)

	want := []progression.AnswerStatus{progression.StatusNeutral, progression.StatusIncorrect, progression.StatusNeutral}
	if len(statuses) != len(want) {
		t.Fatalf("got %d notifications %v, want %v", len(statuses), statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("notification %d status = %v, want %v", i, statuses[i], want[i])
		}
	}

	cancel()
	m.Reset(ctx)
	if len(statuses) != len(want) {
		t.Errorf("notified after cancel: %v", statuses)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m, _ := newTestMachine(t)

	snap := m.Snapshot()
	snap.Levels[1].Unlocked = true
	snap.Levels[0].Options[0] = "Changed"

	fresh := m.Snapshot()
	if fresh.Levels[1].Unlocked {
		t.Error("mutating a snapshot unlocked a level")
	}
	if fresh.Levels[0].Options[0] != "Windy" {
		t.Error("mutating a snapshot changed level options")
	}
}

// TestUnlockInvariantRandomOperations drives the machine with a seeded
// random sequence of operations and checks the unlock invariant after each.
func TestUnlockInvariantRandomOperations(t *testing.T) {
	ctx := context.Background()
	answers := []string{"Motor", "Detroit", "1701", "Windy", "Hudson", "1601", ""}

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		m, sched := newTestMachine(t)

		for step := 0; step < 200; step++ {
			switch rng.Intn(6) {
			case 0, 1:
				_ = m.SelectLevel(ctx, rng.Intn(5))
			case 2, 3:
				m.SubmitAnswer(ctx, answers[rng.Intn(len(answers))])
			case 4:
				sched.Advance(time.Duration(rng.Intn(1000)) * time.Millisecond)
			case 5:
				if rng.Intn(10) == 0 {
					m.Reset(ctx)
				} else {
					m.ClearSelection(ctx)
				}
			}

			snap := m.Snapshot()
			checkUnlockInvariant(t, snap)
			if snap.Complete != (snap.CompletedCount() == len(snap.Levels)) {
				t.Fatalf("seed %d step %d: Complete=%v with %d completed", seed, step, snap.Complete, snap.CompletedCount())
			}
			if snap.Selected != nil && !snap.Selected.Playable() {
				t.Fatalf("seed %d step %d: selected level %d is not playable", seed, step, snap.Selected.ID)
			}
		}
	}
}

// leakyScheduler hands out timers that can never be stopped, so callbacks
// always fire; used to exercise the generation guard.
type leakyScheduler struct {
	fns []func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (s *leakyScheduler) AfterFunc(_ time.Duration, fn func()) progression.Timer {
	s.fns = append(s.fns, fn)
	return leakyTimer{}
}

func (s *leakyScheduler) fireFirst() {
	if len(s.fns) == 0 {
		return
	}
	fn := s.fns[0]
	s.fns = s.fns[1:]
	fn()
}

func (s *leakyScheduler) fireAll() {
	for len(s.fns) > 0 {
		s.fireFirst()
	}
}
