// SPDX-License-Identifier: EPL-2.0

// Package action provides a multicast callback list.
package action

import "sync"

// ID identifies a handler added to an Action.
type ID uint64

type handler[T any] struct {
	id ID
	fn func(T)
}

type pending[T any] struct {
	add bool
	h   handler[T]
}

// Action calls every added handler on Invoke, in the order they were
// added. Handlers may add or remove handlers, including themselves, from
// inside Invoke; those changes take effect once the outermost Invoke
// returns.
//
// The zero value is ready to use. An Action is safe for concurrent use,
// but handlers run on the invoking goroutine.
type Action[T any] struct {
	mu       sync.Mutex
	next     ID
	handlers []handler[T]
	queue    []pending[T]
	invoking int
}

// Add registers fn and returns an ID for Remove.
func (a *Action[T]) Add(fn func(T)) ID {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	h := handler[T]{id: a.next, fn: fn}
	if a.invoking > 0 {
		a.queue = append(a.queue, pending[T]{add: true, h: h})
		return h.id
	}
	a.handlers = append(a.handlers, h)
	return h.id
}

// Remove unregisters the handler with id. Unknown ids are ignored.
func (a *Action[T]) Remove(id ID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.invoking > 0 {
		a.queue = append(a.queue, pending[T]{h: handler[T]{id: id}})
		return
	}
	a.remove(id)
}

func (a *Action[T]) remove(id ID) {
	for i, h := range a.handlers {
		if h.id == id {
			a.handlers = append(a.handlers[:i], a.handlers[i+1:]...)
			return
		}
	}
}

// Invoke calls every handler with v.
func (a *Action[T]) Invoke(v T) {
	a.mu.Lock()
	a.invoking++
	handlers := a.handlers
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.invoking--
		if a.invoking > 0 {
			return
		}
		for _, p := range a.queue {
			if p.add {
				a.handlers = append(a.handlers, p.h)
			} else {
				a.remove(p.h.id)
			}
		}
		a.queue = a.queue[:0]
	}()

	for _, h := range handlers {
		h.fn(v)
	}
}

// Len returns the number of registered handlers, not counting pending
// adds.
func (a *Action[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handlers)
}

// Contains reports whether id is registered.
func (a *Action[T]) Contains(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, h := range a.handlers {
		if h.id == id {
			return true
		}
	}
	return false
}

// Clear removes every handler. Inside Invoke the removal is deferred like
// Remove.
func (a *Action[T]) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.invoking > 0 {
		for _, h := range a.handlers {
			a.queue = append(a.queue, pending[T]{h: handler[T]{id: h.id}})
		}
		for _, p := range a.queue {
			if p.add {
				a.queue = append(a.queue, pending[T]{h: handler[T]{id: p.h.id}})
			}
		}
		return
	}
	a.handlers = nil
	a.queue = a.queue[:0]
}
