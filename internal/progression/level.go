// Package progression implements the level-progression state machine that
// drives the quiz map: which levels are unlocked, which level is being
// answered, transient answer feedback and overall completion.
package progression

// AnswerStatus is the transient feedback for the level being answered.
type AnswerStatus int

const (
	// StatusNeutral - no feedback showing
	StatusNeutral AnswerStatus = iota
	// StatusCorrect - the answer matched; the level settles after a delay
	StatusCorrect
	// StatusIncorrect - the answer did not match; reverts to neutral after a delay
	StatusIncorrect
)

// String returns a human-readable status name.
func (s AnswerStatus) String() string {
	switch s {
	case StatusNeutral:
		return "neutral"
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// Phase is the overall session state.
type Phase int

const (
	// PhaseOnMap - no level selected, the player is looking at the map
	PhaseOnMap Phase = iota
	// PhaseAnswering - a level is selected and awaiting or showing feedback
	PhaseAnswering
	// PhaseVictory - every level is completed
	PhaseVictory
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseOnMap:
		return "on_map"
	case PhaseAnswering:
		return "answering"
	case PhaseVictory:
		return "victory"
	default:
		return "unknown"
	}
}

// Level is one quiz unit plus its progress flags.
type Level struct {
	ID            int
	Question      string
	Options       []string
	CorrectAnswer string

	Unlocked  bool
	Completed bool
}

// Playable reports whether the level may be selected.
func (l Level) Playable() bool {
	return l.Unlocked && !l.Completed
}

func (l Level) clone() Level {
	l.Options = append([]string(nil), l.Options...)
	return l
}

// Snapshot is a read-only copy of the session state for rendering.
type Snapshot struct {
	Levels   []Level
	Selected *Level
	Status   AnswerStatus
	Complete bool
}

// Phase derives the session phase from the snapshot.
func (s Snapshot) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseVictory
	case s.Selected != nil:
		return PhaseAnswering
	default:
		return PhaseOnMap
	}
}

// Frontier returns the index of the playable level, or -1 when every level
// is completed.
func (s Snapshot) Frontier() int {
	for i, l := range s.Levels {
		if l.Playable() {
			return i
		}
	}
	return -1
}

// CompletedCount returns the number of completed levels.
func (s Snapshot) CompletedCount() int {
	count := 0
	for _, l := range s.Levels {
		if l.Completed {
			count++
		}
	}
	return count
}
