package history

// DefaultCap is the number of snapshots kept before the oldest is dropped.
const DefaultCap = 50

// History is a bounded stack of snapshots with an undo/redo cursor. Every
// value going in or coming out is cloned, so callers never alias an entry.
// It is not safe for concurrent use.
type History[T any] struct {
	entries  []T
	cursor   int
	capacity int
	clone    func(T) T
}

func New[T any](capacity int, clone func(T) T) *History[T] {
	if capacity < 1 {
		capacity = DefaultCap
	}
	return &History[T]{
		cursor:   -1,
		capacity: capacity,
		clone:    clone,
	}
}

// Reset discards all entries and starts over with v as the only snapshot.
func (h *History[T]) Reset(v T) {
	h.entries = []T{h.clone(v)}
	h.cursor = 0
}

// Push records v after the cursor, discarding any redo tail.
func (h *History[T]) Push(v T) {
	if h.cursor < len(h.entries)-1 {
		h.entries = h.entries[:h.cursor+1]
	}

	h.entries = append(h.entries, h.clone(v))
	h.cursor++

	if len(h.entries) > h.capacity {
		var zero T
		h.entries[0] = zero
		h.entries = h.entries[1:]
		h.cursor--
	}
}

func (h *History[T]) CanUndo() bool {
	return h.cursor > 0
}

func (h *History[T]) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		var zero T
		return zero, false
	}
	h.cursor--
	return h.clone(h.entries[h.cursor]), true
}

func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		var zero T
		return zero, false
	}
	h.cursor++
	return h.clone(h.entries[h.cursor]), true
}

// Current returns a copy of the snapshot under the cursor.
func (h *History[T]) Current() (T, bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		var zero T
		return zero, false
	}
	return h.clone(h.entries[h.cursor]), true
}

func (h *History[T]) Len() int {
	return len(h.entries)
}

func (h *History[T]) Cursor() int {
	return h.cursor
}
