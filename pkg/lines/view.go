package lines

import "context"

// View receives the row changes of a Model. end is exclusive and -1 means
// through the end of the view.
type View interface {
	Replace(ctx context.Context, start, end int, items []Item) error
}

// Surface is a line addressed text display.
type Surface interface {
	ReplaceLines(ctx context.Context, start, end int, lines []string) error
}

// Renderer turns a row into display text.
type Renderer interface {
	Render(item Item) string
}

var _ View = (*TextView)(nil)

// TextView renders rows to text and hands them to a Surface.
type TextView struct {
	Surface  Surface
	Renderer Renderer
}

func (v TextView) Replace(ctx context.Context, start, end int, items []Item) error {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = v.Renderer.Render(item)
	}
	return v.Surface.ReplaceLines(ctx, start, end, texts)
}
