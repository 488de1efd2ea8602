package game

import "github.com/dandrade264/QueryCombat-Boardgame/internal/progression"

// Config holds game configuration options.
type Config struct {
	// Delays before answer feedback turns into a state change.
	Delays progression.Delays
}
