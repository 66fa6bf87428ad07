// Package lifecycle tracks the Created → Accepting → Draining → Terminated
// state machine shared by the worker pool and the fork/join pool.
package lifecycle

import "sync/atomic"

// State is a pool lifecycle state.
type State int32

const (
	// Created is the state before workers have been started.
	Created State = iota
	// Accepting means new work is admitted.
	Accepting
	// Draining means no new work is admitted; accepted work still runs.
	Draining
	// Terminated means every accepted unit has finished or been dropped.
	Terminated
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Accepting:
		return "accepting"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Tracker holds a State and only allows forward transitions.
// The zero value is in the Created state.
type Tracker struct {
	state atomic.Int32
}

// Load returns the current state.
func (t *Tracker) Load() State {
	return State(t.state.Load())
}

// Advance moves to next if next is later than the current state and reports
// whether the transition happened. Backward or repeated transitions are
// no-ops, which makes repeated shutdown calls harmless.
func (t *Tracker) Advance(next State) bool {
	for {
		cur := t.state.Load()
		if State(cur) >= next {
			return false
		}
		if t.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// Accepting reports whether new work may be admitted.
func (t *Tracker) Accepting() bool {
	return t.Load() == Accepting
}
