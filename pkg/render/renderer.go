// Package render turns rows into the text and colours shown by the filer.
package render

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/filetug/lazyfiler/pkg/gitutils"
	"github.com/filetug/lazyfiler/pkg/lines"
)

const indent = "  "

// Span colours Text(item)[Start:End].
type Span struct {
	Start int
	End   int
	Color tcell.Color
}

func (s Span) Style() tcell.Style {
	return tcell.StyleDefault.Foreground(s.Color)
}

var _ lines.Renderer = (*Renderer)(nil)

// Renderer formats a row as "[rwxT] " followed by indentation, the name and
// the git mark of the path. T is F for regular files, D for directories and
// U for anything else.
type Renderer struct {
	palette Palette
	status  atomic.Pointer[gitutils.StatusIndex]
}

func NewRenderer(palette Palette) *Renderer {
	return &Renderer{palette: palette}
}

// SetStatus swaps the git status rows are marked with and returns the one it
// replaced. Nil clears it.
func (r *Renderer) SetStatus(status *gitutils.StatusIndex) *gitutils.StatusIndex {
	return r.status.Swap(status)
}

// Branch names the branch of the current status, if any.
func (r *Renderer) Branch() string {
	if status := r.status.Load(); status != nil {
		return status.Branch
	}
	return ""
}

func (r *Renderer) Render(item lines.Item) string {
	text, _ := r.layout(item)
	return text
}

func (r *Renderer) Highlights(item lines.Item) []Span {
	_, spans := r.layout(item)
	return spans
}

// Markup is the text with tview colour tags applied.
func (r *Renderer) Markup(item lines.Item) string {
	text, spans := r.layout(item)
	var sb strings.Builder
	pos := 0
	for _, span := range spans {
		sb.WriteString(tview.Escape(text[pos:span.Start]))
		sb.WriteString(colorTag(span.Color))
		sb.WriteString(tview.Escape(text[span.Start:span.End]))
		sb.WriteString("[-]")
		pos = span.End
	}
	sb.WriteString(tview.Escape(text[pos:]))
	return sb.String()
}

// MarkupRenderer renders rows with tview colour tags.
type MarkupRenderer struct {
	*Renderer
}

func (m MarkupRenderer) Render(item lines.Item) string {
	return m.Markup(item)
}

func colorTag(c tcell.Color) string {
	hex := c.Hex()
	if hex < 0 {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", hex)
}

func typeLetter(t lines.FileType) byte {
	switch {
	case t.IsRegular():
		return 'F'
	case t.IsDir():
		return 'D'
	default:
		return 'U'
	}
}

func (r *Renderer) layout(item lines.Item) (string, []Span) {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(item.Metadata.Perm.String())
	sb.WriteByte(typeLetter(item.Metadata.Type))
	sb.WriteByte(']')
	spans := []Span{{Start: 0, End: sb.Len(), Color: r.palette.Perm}}
	sb.WriteByte(' ')
	sb.WriteString(strings.Repeat(indent, item.Level))

	start := sb.Len()
	sb.WriteString(item.Name())
	switch t := item.Metadata.Type; {
	case t.IsDir():
		sb.WriteByte('/')
	case t.IsLink():
		sb.WriteByte('@')
	}
	spans = append(spans, Span{Start: start, End: sb.Len(), Color: r.nameColor(item)})

	if mark := r.status.Load().Mark(item.Path); mark != gitutils.Clean {
		sb.WriteByte(' ')
		start = sb.Len()
		sb.WriteRune(rune(mark))
		spans = append(spans, Span{Start: start, End: sb.Len(), Color: markColor(mark)})
	}
	return sb.String(), spans
}

func (r *Renderer) nameColor(item lines.Item) tcell.Color {
	switch t := item.Metadata.Type; {
	case t.IsLink():
		return r.palette.Link
	case t == lines.Directory:
		return r.palette.Dir
	case t == lines.Regular:
		return r.palette.File(item.Name())
	default:
		return r.palette.Other
	}
}

func markColor(mark gitutils.Mark) tcell.Color {
	switch mark {
	case gitutils.Added, gitutils.Untracked:
		return tcell.ColorGreen
	case gitutils.Deleted, gitutils.Unmerged:
		return tcell.ColorRed
	default:
		return tcell.ColorYellow
	}
}
