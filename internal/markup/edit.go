package markup

import (
	"fmt"
	"sort"
)

// Edit replaces the bytes [Start, End) with Text. Start == End inserts.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Replace returns an edit replacing s with text.
func Replace(s Span, text string) Edit {
	return Edit{Start: s.Start, End: s.End, Text: text}
}

// Delete returns an edit removing s.
func Delete(s Span) Edit {
	return Edit{Start: s.Start, End: s.End}
}

// Insert returns an edit inserting text at offset.
func Insert(offset int, text string) Edit {
	return Edit{Start: offset, End: offset, Text: text}
}

// ErrOverlap is returned by Apply when two edits touch the same bytes.
type ErrOverlap struct {
	A, B Edit
}

func (e *ErrOverlap) Error() string {
	return fmt.Sprintf("edits overlap: [%d,%d) and [%d,%d)", e.A.Start, e.A.End, e.B.Start, e.B.End)
}

// Overlaps reports whether two edits touch the same bytes. Insertions at
// the boundary of a replacement do not overlap it.
func Overlaps(a, b Edit) bool {
	if a.Start == a.End || b.Start == b.End {
		return a.Start > b.Start && a.Start < b.End || b.Start > a.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// Apply applies edits to the source and reparses it. Edits are applied
// from the highest offset down, so every offset refers to the original
// source. With no edits the tree itself is returned.
func (t *Tree) Apply(edits []Edit) (*Tree, error) {
	if len(edits) == 0 {
		return t, nil
	}
	out, err := ApplyEdits(t.Src, edits)
	if err != nil {
		return nil, err
	}
	return Parse(t.Name, out)
}

// ApplyEdits applies non-overlapping edits to src and returns a new slice.
func ApplyEdits(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var widest *Edit
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("edit [%d,%d) out of range for %d bytes", e.Start, e.End, len(src))
		}
		if widest != nil && Overlaps(*widest, e) {
			return nil, &ErrOverlap{A: *widest, B: e}
		}
		if widest == nil || e.End > widest.End {
			widest = &sorted[i]
		}
	}

	out := append([]byte(nil), src...)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		tail := append([]byte(e.Text), out[e.End:]...)
		out = append(out[:e.Start], tail...)
	}
	return out, nil
}
