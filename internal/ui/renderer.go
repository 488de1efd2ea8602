package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
)

const (
	nodeWidth  = 9
	nodeHeight = 5
	nodeGap    = 6
)

var (
	styleBase    = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleDim     = styleBase.Foreground(tcell.ColorGray)
	styleLocked  = styleBase.Foreground(tcell.ColorDarkGray)
	styleYellow  = styleBase.Foreground(tcell.ColorYellow)
	styleButton  = styleBase.Foreground(tcell.ColorYellow)
	styleFocused = tcell.StyleDefault.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack).Bold(true)
)

// Renderer handles drawing the game views to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// RenderTitle draws the splash screen.
func (r *Renderer) RenderTitle() {
	r.screen.Clear()
	_, h := r.screen.Size()
	mid := h / 2

	r.screen.DrawCentered(mid-4, "Q U E R Y   C O M B A T", styleBase.Bold(true))
	r.screen.DrawCentered(mid-2, "D E T R O I T   E D I T I O N", styleYellow)
	r.screen.DrawCentered(mid+1, "[ ENTER THE ARENA ]", styleFocused)
	r.footer("Enter start   m music   q quit")

	r.screen.Show()
}

// RenderBoard draws the level map. focus is the index of the highlighted
// node; accents holds one color per level.
func (r *Renderer) RenderBoard(snap progression.Snapshot, focus int, accents []tcell.Color) {
	r.screen.Clear()
	w, h := r.screen.Size()
	mid := h / 2

	r.screen.DrawCentered(2, "THE MOTOR CITY ROAD", styleYellow.Bold(true))
	r.screen.DrawCentered(3, strconv.Itoa(snap.CompletedCount())+" / "+strconv.Itoa(len(snap.Levels))+" conquered", styleDim)

	// Road surface with a dashed center line
	roadY := mid + 1
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, roadY-1, '─', styleDim)
		r.screen.SetContent(x, roadY+1, '─', styleDim)
		if x%4 < 2 {
			r.screen.SetContent(x, roadY, '-', styleYellow)
		}
	}

	total := len(snap.Levels)*nodeWidth + (len(snap.Levels)-1)*nodeGap
	x := (w - total) / 2
	top := roadY - nodeHeight/2
	frontier := snap.Frontier()

	for i, level := range snap.Levels {
		accent := tcell.ColorYellow
		if i < len(accents) {
			accent = accents[i]
		}
		r.drawNode(x, top, level, accent, i == focus)
		if i == frontier {
			// Player marker rides above the playable node
			r.screen.DrawText(x+nodeWidth/2-1, top-2, "<@>", styleYellow.Bold(true))
		}
		x += nodeWidth + nodeGap
	}

	r.footer("←/→ choose   Enter play   Esc title   m music   q quit")
	r.screen.Show()
}

// drawNode draws one level node as a box showing its id, a lock or a check.
func (r *Renderer) drawNode(x, y int, level progression.Level, accent tcell.Color, focused bool) {
	border := styleLocked
	label := "LOCK"
	switch {
	case !level.Unlocked:
	case level.Completed:
		border = styleBase.Foreground(accent)
		label = "✓"
	default:
		border = styleBase.Foreground(accent).Bold(true)
		label = strconv.Itoa(level.ID)
	}
	if focused {
		border = border.Reverse(true)
	}

	r.drawBox(x, y, nodeWidth, nodeHeight, border)
	inner := nodeWidth - 2
	for row := 1; row < nodeHeight-1; row++ {
		for col := 1; col <= inner; col++ {
			r.screen.SetContent(x+col, y+row, ' ', border)
		}
	}
	r.screen.DrawText(x+1+(inner-TextWidth(label))/2, y+nodeHeight/2, label, border)
}

// RenderQuestion draws the quiz card for level with border feedback for
// status. focus is the highlighted option.
func (r *Renderer) RenderQuestion(level progression.Level, status progression.AnswerStatus, focus int) {
	r.screen.Clear()
	w, h := r.screen.Size()

	header := styleYellow
	if status == progression.StatusIncorrect {
		header = styleBase.Foreground(tcell.ColorRed)
	}
	r.screen.DrawCentered(2, "L E V E L   "+strconv.Itoa(level.ID), header.Bold(true))

	border := statusStyle(status)
	cardW := min(w-4, 72)
	lines := wrap(level.Question, cardW-6)
	cardH := len(lines) + 4
	cardX := (w - cardW) / 2
	cardY := max(h/2-cardH, 4)

	// A wrong answer knocks the card sideways, like a shake frozen mid-swing
	if status == progression.StatusIncorrect && cardX > 1 {
		cardX -= 2
	}

	r.drawBox(cardX, cardY, cardW, cardH, border)
	for i, line := range lines {
		r.screen.DrawText(cardX+(cardW-TextWidth(line))/2, cardY+2+i, line, styleBase.Bold(true))
	}

	labels := make([]string, len(level.Options))
	total := 0
	for i, opt := range level.Options {
		labels[i] = " " + strconv.Itoa(i+1) + ". " + opt + " "
		total += TextWidth(labels[i]) + 2
	}
	x := max((w-total)/2, 0)
	y := cardY + cardH + 3
	for i, label := range labels {
		style := styleButton
		if i == focus {
			style = styleFocused
		}
		x = r.screen.DrawText(x, y, label, style) + 2
	}

	r.footer("←/→ choose   Enter or 1-" + strconv.Itoa(len(level.Options)) + " answer   Esc map")
	r.screen.Show()
}

// VictoryButtons are the victory screen actions in display order.
var VictoryButtons = []string{"Play Again", "Exit to Title"}

// RenderVictory draws the end screen. focus indexes VictoryButtons.
func (r *Renderer) RenderVictory(focus int) {
	r.screen.Clear()
	w, h := r.screen.Size()
	mid := h / 2

	trophy := []string{
		"___________",
		"'._==_==_=_.'",
		".-\\:      /-.",
		"| (|:.     |) |",
		"'-|:.     |-'",
		"\\::.    /",
		"'::. .'",
		") (",
		"_.' '._",
	}
	for i, line := range trophy {
		r.screen.DrawCentered(mid-12+i, line, styleYellow)
	}

	r.screen.DrawCentered(mid, "D E T R O I T   C O N Q U E R E D", styleBase.Bold(true))
	r.screen.DrawCentered(mid+2, "You've mastered Query Combat - Detroit Edition!", styleDim)

	labels := make([]string, len(VictoryButtons))
	total := 0
	for i, b := range VictoryButtons {
		labels[i] = "[ " + b + " ]"
		total += TextWidth(labels[i]) + 4
	}
	x := max((w-total)/2, 0)
	for i, label := range labels {
		style := styleButton
		if i == focus {
			style = styleFocused
		}
		x = r.screen.DrawText(x, mid+5, label, style) + 4
	}

	r.footer("←/→ choose   Enter confirm   q quit")
	r.screen.Show()
}

func (r *Renderer) footer(hint string) {
	_, h := r.screen.Size()
	r.screen.DrawCentered(h-2, hint, styleDim)
}

func (r *Renderer) drawBox(x, y, w, h int, style tcell.Style) {
	for col := x + 1; col < x+w-1; col++ {
		r.screen.SetContent(col, y, '═', style)
		r.screen.SetContent(col, y+h-1, '═', style)
	}
	for row := y + 1; row < y+h-1; row++ {
		r.screen.SetContent(x, row, '║', style)
		r.screen.SetContent(x+w-1, row, '║', style)
	}
	r.screen.SetContent(x, y, '╔', style)
	r.screen.SetContent(x+w-1, y, '╗', style)
	r.screen.SetContent(x, y+h-1, '╚', style)
	r.screen.SetContent(x+w-1, y+h-1, '╝', style)
}

// statusStyle returns the card border style for an answer status.
func statusStyle(status progression.AnswerStatus) tcell.Style {
	switch status {
	case progression.StatusCorrect:
		return styleBase.Foreground(tcell.ColorGreen).Bold(true)
	case progression.StatusIncorrect:
		return styleBase.Foreground(tcell.ColorRed).Bold(true)
	default:
		return styleBase.Foreground(tcell.ColorSteelBlue)
	}
}

// wrap breaks text into lines no wider than width, splitting on spaces.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	if width < 1 {
		width = 1
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if TextWidth(line)+1+TextWidth(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}
