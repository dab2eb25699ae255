package tui

import (
	"context"
	"sync"

	"github.com/rivo/tview"

	"github.com/filetug/lazyfiler/pkg/lines"
)

var _ lines.Surface = (*ListSurface)(nil)

type linesPatch struct {
	start, end int
	texts      []string
}

// ListSurface shows rows as the items of a tview.List. Patches are applied
// on the UI goroutine in the order they arrive; ReplaceLines never waits for
// the UI, it is called with the line model locked.
type ListSurface struct {
	list  *tview.List
	queue func(f func())

	mu        sync.Mutex
	pending   []linesPatch
	scheduled bool
}

func NewListSurface(list *tview.List, queue func(f func())) *ListSurface {
	return &ListSurface{list: list, queue: queue}
}

func (s *ListSurface) ReplaceLines(ctx context.Context, start, end int, texts []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = append(s.pending, linesPatch{start: start, end: end, texts: append([]string(nil), texts...)})
	schedule := !s.scheduled
	s.scheduled = true
	s.mu.Unlock()
	if schedule {
		goRun(func() {
			s.queue(s.drain)
		})
	}
	return nil
}

func (s *ListSurface) drain() {
	s.mu.Lock()
	patches := s.pending
	s.pending = nil
	s.scheduled = false
	s.mu.Unlock()
	for _, p := range patches {
		s.apply(p.start, p.end, p.texts)
	}
}

func (s *ListSurface) apply(start, end int, texts []string) {
	count := s.list.GetItemCount()
	if end < 0 || end > count {
		end = count
	}
	if start > end {
		start = end
	}
	for i := start; i < end; i++ {
		s.list.RemoveItem(start)
	}
	for i, text := range texts {
		s.list.InsertItem(start+i, text, "", 0, nil)
	}
}
