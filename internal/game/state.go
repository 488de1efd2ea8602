// Package game provides the main game loop, navigation and input handling.
package game

import "github.com/dandrade264/QueryCombat-Boardgame/internal/progression"

// View represents which screen is showing.
type View int

const (
	// ViewTitle is the splash screen shown before the game starts.
	ViewTitle View = iota
	// ViewBoard is the level map.
	ViewBoard
	// ViewQuestion is the quiz card for the selected level.
	ViewQuestion
	// ViewVictory is shown once every level is completed.
	ViewVictory
)

// String returns a human-readable view name.
func (v View) String() string {
	switch v {
	case ViewTitle:
		return "title"
	case ViewBoard:
		return "board"
	case ViewQuestion:
		return "question"
	case ViewVictory:
		return "victory"
	default:
		return "unknown"
	}
}

// viewFor picks the screen for the shell flag and session phase.
func viewFor(started bool, phase progression.Phase) View {
	if !started {
		return ViewTitle
	}
	switch phase {
	case progression.PhaseVictory:
		return ViewVictory
	case progression.PhaseAnswering:
		return ViewQuestion
	default:
		return ViewBoard
	}
}
