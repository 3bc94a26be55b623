package grid

// Rect is a placed cell span on a page grid. Rows and Cols are at least 1.
type Rect struct {
	Row  int
	Col  int
	Rows int
	Cols int
}

// Overlaps reports whether the spans of a and b intersect on both axes.
func Overlaps(a, b Rect) bool {
	return !(a.Row+a.Rows <= b.Row ||
		b.Row+b.Rows <= a.Row ||
		a.Col+a.Cols <= b.Col ||
		b.Col+b.Cols <= a.Col)
}

// Valid reports whether r satisfies the size precondition of Overlaps.
func (r Rect) Valid() bool {
	return r.Rows >= 1 && r.Cols >= 1 && r.Row >= 0 && r.Col >= 0
}
