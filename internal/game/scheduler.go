package game

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/ui"
)

// loopScheduler runs deferred callbacks on the event loop: the clock's
// timer goroutine waits for room in the event queue and posts the callback,
// and Run executes it.
type loopScheduler struct {
	clock  clockwork.Clock
	screen *ui.Screen
	logger *zap.Logger
}

func newLoopScheduler(clock clockwork.Clock, screen *ui.Screen, logger *zap.Logger) *loopScheduler {
	return &loopScheduler{clock: clock, screen: screen, logger: logger}
}

func (s *loopScheduler) AfterFunc(d time.Duration, fn func()) progression.Timer {
	return s.clock.AfterFunc(d, func() {
		if err := s.screen.PostFunc(fn); err != nil {
			// Only happens while shutting down; the loop is gone.
			s.logger.Debug("deferred transition not delivered", zap.Error(err))
		}
	})
}
