package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// ParseHexColor converts a hex color string (e.g., "#FFD700" or "FFD700") to a tcell.Color.
func ParseHexColor(hex string) (tcell.Color, error) {
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color length: %s", hex)
	}

	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color %s: %w", hex, err)
	}

	return tcell.NewHexColor(int32(rgb)), nil
}

// AccentColor returns the level's accent color, or fallback when the level
// has none or it cannot be parsed.
func (l *LevelDef) AccentColor(fallback tcell.Color) tcell.Color {
	if l.Color == "" {
		return fallback
	}
	color, err := ParseHexColor(l.Color)
	if err != nil {
		return fallback
	}
	return color
}
