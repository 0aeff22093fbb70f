/*
Package history implements undo/redo for documents by whole-forest snapshots.

Overview

A History holds two bounded stacks of snapshots: past (most recent last) and
future (most recent first). Clients record a snapshot of the live forest
immediately before every mutation; recording invalidates the future.
Undo and redo swap the live forest with the top of the respective stack,
pushing a snapshot of the live forest onto the other one.

Snapshots are deep copies. Neither the forest handed in nor the forests
handed out share any mutable state with a stored snapshot. This trades
memory for simplicity; capacity bounds the memory used.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package history

import (
	"time"

	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.history'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.history")
}

// DefaultCapacity is the number of snapshots kept in the past stack.
const DefaultCapacity = 50

// Snapshot is an independent copy of a forest, taken before an action.
type Snapshot struct {
	Forest tree.Forest // deep copy, owned by the snapshot
	Taken  time.Time   // time the snapshot was taken
	Label  string      // human readable name of the action
}

// History is a pair of bounded snapshot stacks.
//
// History is not safe for concurrent use; it is owned by a single
// document store.
type History struct {
	past     []Snapshot // most recent last
	future   []Snapshot // most recent first
	capacity int
	clock    func() time.Time
}

// Option is a type to help initializing histories at creation time.
type Option func(*History)

// Capacity sets the maximum number of undo steps. Values < 1 are raised to 1.
func Capacity(n int) Option {
	return func(h *History) {
		if n < 1 {
			n = 1
		}
		h.capacity = n
	}
}

// Clock sets the time source for snapshot timestamps.
func Clock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.clock = now
		}
	}
}

// New creates an empty history.
//
//     h := history.New(history.Capacity(100))
//
func New(opts ...Option) *History {
	h := &History{capacity: DefaultCapacity, clock: time.Now}
	for _, option := range opts {
		option(h)
	}
	return h
}

// Capacity returns the maximum number of undo steps.
func (h *History) Capacity() int {
	return h.capacity
}

func (h *History) snapshot(f tree.Forest, label string) Snapshot {
	return Snapshot{Forest: f.Clone(), Taken: h.clock(), Label: label}
}

// Record stores a snapshot of current on the past stack, clears the future
// and drops the oldest snapshots exceeding the capacity.
// Clients call Record immediately before mutating the forest.
func (h *History) Record(current tree.Forest, label string) {
	h.past = append(h.past, h.snapshot(current, label))
	h.future = nil
	if over := len(h.past) - h.capacity; over > 0 {
		tracer().Debugf("history: evicting %d oldest snapshot(s)", over)
		h.past = append([]Snapshot(nil), h.past[over:]...)
	}
	tracer().Debugf("history: recorded %q, %d undo step(s)", label, len(h.past))
}

// Undo returns the forest as it was before the most recent action, and
// stores current for a redo. If there is nothing to undo, it returns
// current and false.
func (h *History) Undo(current tree.Forest) (tree.Forest, bool) {
	if len(h.past) == 0 {
		return current, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append([]Snapshot{h.snapshot(current, top.Label)}, h.future...)
	tracer().Debugf("history: undo %q", top.Label)
	return top.Forest.Clone(), true
}

// Redo re-applies the most recently undone action, and stores current for
// an undo. If there is nothing to redo, it returns current and false.
func (h *History) Redo(current tree.Forest) (tree.Forest, bool) {
	if len(h.future) == 0 {
		return current, false
	}
	top := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, h.snapshot(current, top.Label))
	if over := len(h.past) - h.capacity; over > 0 {
		h.past = append([]Snapshot(nil), h.past[over:]...)
	}
	tracer().Debugf("history: redo %q", top.Label)
	return top.Forest.Clone(), true
}

// CanUndo is a predicate wether there is an action to undo.
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo is a predicate wether there is an action to redo.
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// PastLen returns the number of undo steps available.
func (h *History) PastLen() int {
	return len(h.past)
}

// FutureLen returns the number of redo steps available.
func (h *History) FutureLen() int {
	return len(h.future)
}

// PastLabels returns the labels of the undo stack, oldest first.
func (h *History) PastLabels() []string {
	return labels(h.past)
}

// FutureLabels returns the labels of the redo stack, next redo first.
func (h *History) FutureLabels() []string {
	return labels(h.future)
}

// Past returns a copy of the undo stack, oldest first.
func (h *History) Past() []Snapshot {
	return copyStack(h.past)
}

// Future returns a copy of the redo stack, next redo first.
func (h *History) Future() []Snapshot {
	return copyStack(h.future)
}

// Clear drops all snapshots.
func (h *History) Clear() {
	h.past, h.future = nil, nil
}

func labels(stack []Snapshot) []string {
	l := make([]string, len(stack))
	for i, s := range stack {
		l[i] = s.Label
	}
	return l
}

func copyStack(stack []Snapshot) []Snapshot {
	c := make([]Snapshot, len(stack))
	for i, s := range stack {
		c[i] = Snapshot{Forest: s.Forest.Clone(), Taken: s.Taken, Label: s.Label}
	}
	return c
}
