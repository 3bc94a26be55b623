package observer

import "sync"

// Token identifies a registration so anonymous handlers can be removed.
type Token uint64

type entry[F any] struct {
	token Token
	fn    F
}

// Registry keeps handlers in registration order. The zero value is ready to use.
type Registry[F any] struct {
	mu      sync.Mutex
	next    Token
	entries []entry[F]
}

func (r *Registry[F]) Add(fn F) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.entries = append(r.entries, entry[F]{token: r.next, fn: fn})
	return r.next
}

// Remove drops the handler registered under t. It returns false if t is unknown.
func (r *Registry[F]) Remove(t Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.token == t {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns the handlers so they can be called without holding the lock.
func (r *Registry[F]) Snapshot() []F {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]F, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fn
	}
	return out
}

func (r *Registry[F]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
