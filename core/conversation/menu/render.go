package menu

import (
	"strconv"
	"strings"
)

const (
	// LockGlyph prefixes the label of a locked item.
	LockGlyph = "🔒 "
	// BackLine is always the last line; index 0 is never part of Rendered.Index.
	BackLine = "0) Menu"
	// BackSelection is the reserved reply that returns to the menu.
	BackSelection = "0"
)

// Rendered is one display of a menu. Indices are only valid for this render.
type Rendered struct {
	Text  string
	Index map[int]Item
}

// Render numbers items 1..N section by section and appends the back line.
func Render(sections []Section) Rendered {
	var b strings.Builder
	index := make(map[int]Item)
	n := 1
	for _, sec := range sections {
		b.WriteString(sec.Section)
		b.WriteByte('\n')
		for _, it := range sec.Items {
			b.WriteString(strconv.Itoa(n))
			b.WriteString(") ")
			if it.Locked {
				b.WriteString(LockGlyph)
			}
			b.WriteString(it.Label)
			b.WriteByte('\n')
			index[n] = it
			n++
		}
	}
	b.WriteString(BackLine)
	return Rendered{Text: b.String(), Index: index}
}

// Empty reports whether the render has no selectable items.
func (r Rendered) Empty() bool {
	return len(r.Index) == 0
}

// Lookup resolves a numeric reply such as "3" to its item.
func (r Rendered) Lookup(selection string) (Item, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(selection))
	if err != nil || n <= 0 {
		return Item{}, false
	}
	it, ok := r.Index[n]
	return it, ok
}
