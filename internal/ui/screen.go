// Package ui provides terminal rendering using tcell.
package ui

import (
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// EventFunc carries a callback that must run on the event loop goroutine.
type EventFunc struct {
	tcell.EventTime
	Fn func()
}

// ErrScreenClosed is returned when posting to a screen that has been closed.
var ErrScreenClosed = errors.New("screen closed")

// Screen wraps tcell.Screen with a simplified interface.
type Screen struct {
	screen    tcell.Screen
	closed    chan struct{}
	closeOnce sync.Once
}

// NewScreen creates and initializes a new terminal screen.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewScreenFrom(s)
}

// NewScreenFrom initializes an existing tcell screen, such as a simulation
// screen in tests.
func NewScreenFrom(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.HideCursor()
	s.Clear()
	return &Screen{screen: s, closed: make(chan struct{})}, nil
}

// Close finalizes the screen and restores terminal state.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.screen.Fini()
	})
}

// PollEvent waits for and returns the next terminal event.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

// PostFunc queues fn to run on the goroutine that polls events, waiting for
// room when the queue is full. It must not be called from that goroutine.
// It returns ErrScreenClosed if the screen was closed before fn was queued.
func (s *Screen) PostFunc(fn func()) error {
	select {
	case <-s.closed:
		return ErrScreenClosed
	default:
	}

	ev := &EventFunc{Fn: fn}
	ev.SetEventNow()
	s.screen.PostEventWait(ev)

	select {
	case <-s.closed:
		return ErrScreenClosed
	default:
		return nil
	}
}

// Clear clears the screen buffer.
func (s *Screen) Clear() {
	s.screen.Clear()
}

// Show flushes the screen buffer to the terminal.
func (s *Screen) Show() {
	s.screen.Show()
}

// SetContent sets a single cell's content at the given position.
func (s *Screen) SetContent(x, y int, r rune, style tcell.Style) {
	s.screen.SetContent(x, y, r, nil, style)
}

// DrawText writes text starting at (x, y), one grapheme cluster per cell
// run, and returns the column after the last cell written.
func (s *Screen) DrawText(x, y int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		s.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}

// DrawCentered writes text horizontally centered on row y.
func (s *Screen) DrawCentered(y int, text string, style tcell.Style) {
	w, _ := s.Size()
	s.DrawText((w-TextWidth(text))/2, y, text, style)
}

// Size returns the current terminal dimensions.
func (s *Screen) Size() (width, height int) {
	return s.screen.Size()
}

// Sync forces a complete redraw of the screen.
func (s *Screen) Sync() {
	s.screen.Sync()
}

// TextWidth returns the number of terminal cells text occupies.
func TextWidth(text string) int {
	return uniseg.StringWidth(text)
}
