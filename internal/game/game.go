package game

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/gamedata"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/telemetry"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/ui"
)

// Music is the background soundtrack as seen by the game: something that
// can be started and stopped, independent of game state.
type Music interface {
	Start(ctx context.Context) error
	Stop()
	Playing() bool
}

// Deps are the collaborators the composition root hands to the game.
type Deps struct {
	Screen *ui.Screen
	Levels *gamedata.LevelRegistry
	Music  Music       // Optional
	Logger *zap.Logger // Optional

	// Clock drives deferred transitions, whose callbacks are posted back
	// onto the event loop. Nil uses the real clock.
	Clock clockwork.Clock

	// Scheduler replaces the loop scheduler entirely when set.
	Scheduler progression.Scheduler
}

// Game holds the navigation shell around the progression state machine.
type Game struct {
	screen   *ui.Screen
	renderer *ui.Renderer
	machine  *progression.Machine
	music    Music
	logger   *zap.Logger
	accents  []tcell.Color

	snap    progression.Snapshot
	view    View
	started bool
	running bool

	boardFocus   int
	optionFocus  int
	victoryFocus int

	runID       string
	runSpan     trace.Span
	unsubscribe func()
}

// New creates a game over the level table in deps.
func New(deps Deps, cfg Config) (*Game, error) {
	if deps.Screen == nil {
		return nil, errors.New("game: nil screen")
	}
	if deps.Levels == nil || deps.Levels.Count() == 0 {
		return nil, errors.New("game: no levels")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "game"))

	scheduler := deps.Scheduler
	if scheduler == nil {
		clock := deps.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		scheduler = newLoopScheduler(clock, deps.Screen, logger)
	}

	defs := deps.Levels.All()
	levels := make([]progression.Level, len(defs))
	accents := make([]tcell.Color, len(defs))
	for i := range defs {
		levels[i] = progression.Level{
			ID:            defs[i].ID,
			Question:      defs[i].Question,
			Options:       defs[i].Options,
			CorrectAnswer: defs[i].CorrectAnswer,
		}
		accents[i] = defs[i].AccentColor(tcell.ColorYellow)
	}

	machine, err := progression.New(levels, scheduler, cfg.Delays)
	if err != nil {
		return nil, err
	}

	g := &Game{
		screen:   deps.Screen,
		renderer: ui.NewRenderer(deps.Screen),
		machine:  machine,
		music:    deps.Music,
		logger:   logger,
		accents:  accents,
		snap:     machine.Snapshot(),
		view:     ViewTitle,
	}
	g.unsubscribe = machine.Subscribe(g.onChange)
	return g, nil
}

// Run executes the main game loop until the player quits.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")
	_, initSpan := tracer.Start(ctx, "game.init")
	initSpan.SetAttributes(attribute.Int("levels", len(g.snap.Levels)))
	initSpan.End()

	g.running = true
	for g.running {
		g.render()
		g.handleEvent(ctx, g.screen.PollEvent())
	}

	g.endRun(ctx, "quit")
	g.Close()
	return nil
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	if g.screen != nil {
		g.screen.Close()
		g.screen = nil
	}
}

// onChange receives every state change from the machine.
func (g *Game) onChange(snap progression.Snapshot) {
	g.snap = snap
	g.refreshView()
}

// refreshView switches screens when the shell flag or phase changes and
// resets focus for the screen being entered.
func (g *Game) refreshView() {
	next := viewFor(g.started, g.snap.Phase())
	if next == g.view {
		return
	}
	g.view = next

	switch next {
	case ViewBoard:
		g.boardFocus = max(g.snap.Frontier(), 0)
	case ViewQuestion:
		g.optionFocus = 0
	case ViewVictory:
		g.victoryFocus = 0
		if g.runSpan != nil {
			g.runSpan.AddEvent("victory")
		}
	}
	g.logger.Debug("view changed", zap.Stringer("view", next), zap.String("run_id", g.runID))
}

func (g *Game) render() {
	switch g.view {
	case ViewTitle:
		g.renderer.RenderTitle()
	case ViewBoard:
		g.renderer.RenderBoard(g.snap, g.boardFocus, g.accents)
	case ViewQuestion:
		if g.snap.Selected != nil {
			g.renderer.RenderQuestion(*g.snap.Selected, g.snap.Status, g.optionFocus)
		}
	case ViewVictory:
		g.renderer.RenderVictory(g.victoryFocus)
	}
}

// handleEvent processes a single event from the loop.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	case *ui.EventFunc:
		ev.Fn()
	case nil:
		// Screen finalized
		g.running = false
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		g.running = false
		return
	}
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q', 'Q':
			g.running = false
			return
		case 'm', 'M':
			g.toggleMusic(ctx)
			return
		}
	}

	ctx = g.runContext(ctx)
	switch g.view {
	case ViewTitle:
		g.handleTitleKey(ctx, ev)
	case ViewBoard:
		g.handleBoardKey(ctx, ev)
	case ViewQuestion:
		g.handleQuestionKey(ctx, ev)
	case ViewVictory:
		g.handleVictoryKey(ctx, ev)
	}
}

func (g *Game) handleTitleKey(ctx context.Context, ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEnter, ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
		g.start(ctx)
	case ev.Key() == tcell.KeyEscape:
		g.running = false
	}
}

func (g *Game) handleBoardKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyLeft:
		g.boardFocus = moveFocus(g.boardFocus, -1, len(g.snap.Levels))
	case tcell.KeyRight:
		g.boardFocus = moveFocus(g.boardFocus, 1, len(g.snap.Levels))
	case tcell.KeyEnter:
		id := g.snap.Levels[g.boardFocus].ID
		if err := g.machine.SelectLevel(ctx, id); err != nil {
			// Locked and completed nodes are inert, like a disabled button
			g.logger.Debug("selection ignored", zap.Int("level", id), zap.Error(err))
		}
	case tcell.KeyEscape:
		g.exitToTitle(ctx)
	}
}

func (g *Game) handleQuestionKey(ctx context.Context, ev *tcell.EventKey) {
	selected := g.snap.Selected
	if selected == nil {
		return
	}

	switch ev.Key() {
	case tcell.KeyLeft:
		g.optionFocus = moveFocus(g.optionFocus, -1, len(selected.Options))
	case tcell.KeyRight:
		g.optionFocus = moveFocus(g.optionFocus, 1, len(selected.Options))
	case tcell.KeyEnter:
		g.machine.SubmitAnswer(ctx, selected.Options[g.optionFocus])
	case tcell.KeyEscape:
		g.machine.ClearSelection(ctx)
	case tcell.KeyRune:
		if idx := int(ev.Rune() - '1'); idx >= 0 && idx < len(selected.Options) {
			g.optionFocus = idx
			g.machine.SubmitAnswer(ctx, selected.Options[idx])
		}
	}
}

func (g *Game) handleVictoryKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyLeft:
		g.victoryFocus = moveFocus(g.victoryFocus, -1, len(ui.VictoryButtons))
	case tcell.KeyRight:
		g.victoryFocus = moveFocus(g.victoryFocus, 1, len(ui.VictoryButtons))
	case tcell.KeyEnter:
		if g.victoryFocus == 0 {
			g.playAgain(ctx)
		} else {
			g.exitToTitle(ctx)
		}
	case tcell.KeyEscape:
		g.exitToTitle(ctx)
	}
}

// start leaves the title screen with a fresh session.
func (g *Game) start(ctx context.Context) {
	g.beginRun(ctx)
	g.started = true
	g.machine.Reset(g.runContext(ctx))
	g.refreshView()
}

// playAgain resets the session and stays on the board.
func (g *Game) playAgain(ctx context.Context) {
	g.endRun(ctx, "replay")
	g.beginRun(ctx)
	g.machine.Reset(g.runContext(ctx))
}

// exitToTitle resets the session and returns to the splash screen.
func (g *Game) exitToTitle(ctx context.Context) {
	g.endRun(ctx, "exit")
	g.started = false
	g.machine.Reset(ctx)
	g.refreshView()
}

// beginRun opens a span covering one play-through.
func (g *Game) beginRun(ctx context.Context) {
	g.runID = uuid.NewString()
	_, g.runSpan = telemetry.Tracer("game").Start(ctx, "game.run",
		trace.WithAttributes(attribute.String("run.id", g.runID)))
	g.logger.Info("run started", zap.String("run_id", g.runID))
}

// endRun closes the current play-through span, if any.
func (g *Game) endRun(_ context.Context, outcome string) {
	if g.runSpan == nil {
		return
	}
	completed := g.snap.CompletedCount()
	g.runSpan.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("levels.completed", completed),
		attribute.Bool("game.complete", g.snap.Complete),
	)
	g.runSpan.End()
	g.runSpan = nil
	g.logger.Info("run ended",
		zap.String("run_id", g.runID),
		zap.String("outcome", outcome),
		zap.Int("levels_completed", completed))
}

// runContext parents state-machine spans under the current run.
func (g *Game) runContext(ctx context.Context) context.Context {
	if g.runSpan == nil {
		return ctx
	}
	return trace.ContextWithSpan(ctx, g.runSpan)
}

func (g *Game) toggleMusic(ctx context.Context) {
	if g.music == nil {
		return
	}
	if g.music.Playing() {
		g.music.Stop()
		return
	}
	if err := g.music.Start(ctx); err != nil {
		g.logger.Warn("continuing without music", zap.Error(err))
	}
}

// moveFocus steps focus by delta, clamped to [0, n).
func moveFocus(focus, delta, n int) int {
	focus += delta
	if focus < 0 {
		return 0
	}
	if focus >= n {
		return max(n-1, 0)
	}
	return focus
}
