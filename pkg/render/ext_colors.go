package render

import (
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
)

var extColors = map[string]tcell.Color{
	"exe":  tcell.ColorRed,
	"go":   tcell.ColorAqua,
	"rs":   tcell.ColorOrange,
	"lua":  tcell.ColorDodgerBlue,
	"vim":  tcell.ColorGreen,
	"c":    tcell.ColorDodgerBlue,
	"h":    tcell.ColorDodgerBlue,
	"js":   tcell.ColorYellow,
	"ts":   tcell.ColorDeepSkyBlue,
	"json": tcell.ColorGold,
	"toml": tcell.ColorLightYellow,
	"yaml": tcell.ColorLightYellow,
	"yml":  tcell.ColorLightYellow,
	"md":   tcell.ColorBisque,
	"py":   tcell.ColorLightGreen,
	"sh":   tcell.ColorGreen,
	"txt":  tcell.ColorWhite,
	"jpg":  tcell.ColorMediumPurple,
	"png":  tcell.ColorMediumPurple,
	"gif":  tcell.ColorMediumPurple,
	"log":  tcell.ColorRosyBrown,
	"zip":  tcell.ColorIndianRed,
	"gz":   tcell.ColorIndianRed,
}

// extColor looks the file extension up in a fixed table.
func extColor(name string) (tcell.Color, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	color, ok := extColors[ext]
	return color, ok
}
