package lines

// LineIdx addresses a row. Negative values count from the end, -1 being the
// last row.
type LineIdx int

// Resolve returns the absolute position for a sequence of n rows. It fails
// when the index is still negative after adding n.
func (i LineIdx) Resolve(n int) (int, bool) {
	pos := int(i)
	if pos < 0 {
		pos += n
	}
	if pos < 0 {
		return 0, false
	}
	return pos, true
}

// Range is an absolute, end-exclusive span of rows.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Selector computes a range from the current rows. Returning false declines
// and turns the primitive into a no-op.
type Selector func(items []Item) (Range, bool)

// Position computes an insertion point from the current rows. A position at
// or past the end appends.
type Position func(items []Item) (int, bool)
