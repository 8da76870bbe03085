// Package guard serializes mutating operations.
//
// A Guard owns the committed state. Run hands an operation a private
// working copy; when the operation returns nil the copy is published and
// every participant commits, otherwise the copy is dropped and every
// participant rolls back. The in-progress flag is cleared on both paths, so
// a failed or panicking operation never leaves the guard held.
//
// Any Run issued while another is in flight, including one issued from
// inside the operation itself through a callback, fails with ErrBusy and
// changes nothing. Readers use Snapshot and only ever see committed state.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrBusy is returned when an operation is already in progress.
var ErrBusy = errors.New("guard: operation in progress")

// Cloner is implemented by state types the guard can copy.
type Cloner[S any] interface {
	Clone() S
}

// Participant is an external resource whose effects must commit or roll
// back together with the guarded state, such as an in-process host ledger.
type Participant interface {
	Begin()
	Commit()
	Rollback()
}

// Guard is a single-writer critical section around a state value S.
type Guard[S Cloner[S]] struct {
	busy atomic.Bool

	mu        sync.RWMutex
	committed S

	participants []Participant
}

// New creates a Guard over the initial state.
func New[S Cloner[S]](initial S, participants ...Participant) *Guard[S] {
	return &Guard[S]{
		committed:    initial,
		participants: participants,
	}
}

// AddParticipant registers p for every subsequent Run.
func (g *Guard[S]) AddParticipant(p Participant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.participants = append(g.participants, p)
}

// Snapshot returns the committed state. Callers must treat it as read-only.
func (g *Guard[S]) Snapshot() S {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.committed
}

// InProgress reports whether an operation is running.
func (g *Guard[S]) InProgress() bool {
	return g.busy.Load()
}

// Reset replaces the committed state outright. It fails with ErrBusy
// while an operation is running.
func (g *Guard[S]) Reset(s S) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer g.busy.Store(false)

	g.mu.Lock()
	g.committed = s
	g.mu.Unlock()
	return nil
}

// Run executes fn against a working copy of the committed state.
func (g *Guard[S]) Run(ctx context.Context, op string, fn func(ctx context.Context, working S) error) (err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrBusy, op)
	}
	defer g.busy.Store(false)

	g.mu.RLock()
	working := g.committed.Clone()
	participants := append([]Participant(nil), g.participants...)
	g.mu.RUnlock()

	for _, p := range participants {
		p.Begin()
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Error or panic: discard every participant's effects.
		for i := len(participants) - 1; i >= 0; i-- {
			participants[i].Rollback()
		}
	}()

	if err := fn(ctx, working); err != nil {
		return err
	}

	for _, p := range participants {
		p.Commit()
	}
	committed = true

	g.mu.Lock()
	g.committed = working
	g.mu.Unlock()
	return nil
}
