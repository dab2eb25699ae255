package lines

import (
	"context"
	"sync"

	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/metrics"
)

// Model is the ordered sequence of visible rows kept in step with a View.
//
// Every primitive splices the rows and issues exactly one view call while
// holding the model lock, so views observe changes in model order. A failed
// view call is returned to the caller and leaves the model ahead of the view;
// the next primitive then replaces the whole view instead of its own span.
type Model struct {
	mu    sync.Mutex
	items []Item
	view  View
	stale bool
}

func NewModel(view View) *Model {
	return &Model{view: view}
}

func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Items returns a copy of the rows.
func (m *Model) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...)
}

func (m *Model) Get(idx LineIdx) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := idx.Resolve(len(m.items))
	if !ok || pos >= len(m.items) {
		return Item{}, false
	}
	return m.items[pos], true
}

// Stale reports whether the last view call failed.
func (m *Model) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func (m *Model) ReplaceAll(ctx context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]Item(nil), items...)
	return m.patch(ctx, "replace_all", 0, -1, m.items)
}

func (m *Model) ReplaceRange(ctx context.Context, items []Item, sel Selector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := sel(m.items)
	if !ok || !m.valid(r) {
		return nil
	}
	return m.splice(ctx, "replace_range", r, items)
}

func (m *Model) Insert(ctx context.Context, items []Item, at LineIdx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := at.Resolve(len(m.items))
	if !ok || pos > len(m.items) {
		return nil
	}
	return m.splice(ctx, "insert", Range{Start: pos, End: pos}, items)
}

// InsertDyn inserts item where pos says, computed under the same lock as the
// splice.
func (m *Model) InsertDyn(ctx context.Context, item Item, pos Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := pos(m.items)
	if !ok || at < 0 {
		return nil
	}
	if at > len(m.items) {
		at = len(m.items)
	}
	return m.splice(ctx, "insert_dyn", Range{Start: at, End: at}, []Item{item})
}

func (m *Model) Remove(ctx context.Context, at LineIdx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := at.Resolve(len(m.items))
	if !ok || pos >= len(m.items) {
		return nil
	}
	return m.splice(ctx, "remove", Range{Start: pos, End: pos + 1}, nil)
}

func (m *Model) RemoveRange(ctx context.Context, sel Selector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := sel(m.items)
	if !ok || !m.valid(r) {
		return nil
	}
	return m.splice(ctx, "remove_range", r, nil)
}

// Redraw sends the selected rows to the view again, unchanged, so their
// decorations are rendered afresh.
func (m *Model) Redraw(ctx context.Context, sel Selector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := sel(m.items)
	if !ok || !m.valid(r) || r.Len() == 0 {
		return nil
	}
	items := append([]Item(nil), m.items[r.Start:r.End]...)
	return m.patch(ctx, "redraw", r.Start, r.End, items)
}

func (m *Model) valid(r Range) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= len(m.items)
}

func (m *Model) splice(ctx context.Context, primitive string, r Range, items []Item) error {
	updated := make([]Item, 0, len(m.items)-r.Len()+len(items))
	updated = append(updated, m.items[:r.Start]...)
	updated = append(updated, items...)
	updated = append(updated, m.items[r.End:]...)
	m.items = updated
	return m.patch(ctx, primitive, r.Start, r.End, items)
}

func (m *Model) patch(ctx context.Context, primitive string, start, end int, items []Item) error {
	if m.stale {
		start, end, items = 0, -1, m.items
	}
	err := m.view.Replace(ctx, start, end, items)
	metrics.RecordViewPatch(primitive, err == nil)
	metrics.SetVisibleRows(len(m.items))
	if err != nil {
		m.stale = true
		logging.Debug("view patch failed", logging.String("primitive", primitive), logging.Err(err))
		return err
	}
	m.stale = false
	return nil
}
