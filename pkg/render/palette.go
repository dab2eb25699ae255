package render

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"
)

var getStyle = styles.Get

var getFallbackStyle = func() *chroma.Style {
	return styles.Fallback
}

var matchLexer = lexers.Match

// Palette picks row colours from a chroma style so the tree matches the
// colour scheme of the source previews.
type Palette struct {
	Dir   tcell.Color
	Link  tcell.Color
	Other tcell.Color
	Perm  tcell.Color
	Text  tcell.Color
	Code  tcell.Color
}

func NewPalette(styleName string) Palette {
	style := getStyle(styleName)
	if style == nil {
		style = getFallbackStyle()
	}
	return Palette{
		Dir:   colour(style, chroma.NameNamespace, tcell.ColorDodgerBlue),
		Link:  colour(style, chroma.NameBuiltin, tcell.ColorAqua),
		Other: colour(style, chroma.Comment, tcell.ColorGray),
		Perm:  colour(style, chroma.CommentPreproc, tcell.ColorDarkGray),
		Text:  colour(style, chroma.Text, tcell.ColorWhiteSmoke),
		Code:  colour(style, chroma.NameFunction, tcell.ColorAqua),
	}
}

func colour(style *chroma.Style, tokenType chroma.TokenType, fallback tcell.Color) tcell.Color {
	entry := style.Get(tokenType)
	if !entry.Colour.IsSet() {
		return fallback
	}
	return ToTcell(entry.Colour)
}

// ToTcell converts a chroma colour to a true colour tcell one.
func ToTcell(c chroma.Colour) tcell.Color {
	return tcell.NewRGBColor(int32(c.Red()), int32(c.Green()), int32(c.Blue()))
}

// File colours a regular file by extension, then by whether chroma knows a
// lexer for it.
func (p Palette) File(name string) tcell.Color {
	if color, ok := extColor(name); ok {
		return color
	}
	if matchLexer(name) != nil {
		return p.Code
	}
	return p.Text
}
