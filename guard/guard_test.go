package guard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n    int
	tags map[string]bool
}

func (c *counter) Clone() *counter {
	tags := make(map[string]bool, len(c.tags))
	for k, v := range c.tags {
		tags[k] = v
	}
	return &counter{n: c.n, tags: tags}
}

type recordingParticipant struct {
	begun, committed, rolledBack int
}

func (p *recordingParticipant) Begin()    { p.begun++ }
func (p *recordingParticipant) Commit()   { p.committed++ }
func (p *recordingParticipant) Rollback() { p.rolledBack++ }

func newCounterGuard(ps ...Participant) *Guard[*counter] {
	return New(&counter{tags: map[string]bool{}}, ps...)
}

func TestRunCommits(t *testing.T) {
	p := &recordingParticipant{}
	g := newCounterGuard(p)

	err := g.Run(context.Background(), "inc", func(_ context.Context, c *counter) error {
		c.n++
		c.tags["inc"] = true
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, g.Snapshot().n)
	assert.True(t, g.Snapshot().tags["inc"])
	assert.Equal(t, 1, p.begun)
	assert.Equal(t, 1, p.committed)
	assert.Equal(t, 0, p.rolledBack)
	assert.False(t, g.InProgress())
}

func TestRunDiscardsOnError(t *testing.T) {
	p := &recordingParticipant{}
	g := newCounterGuard(p)
	boom := errors.New("boom")

	err := g.Run(context.Background(), "fail", func(_ context.Context, c *counter) error {
		c.n = 99
		c.tags["fail"] = true
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, g.Snapshot().n)
	assert.Empty(t, g.Snapshot().tags)
	assert.Equal(t, 1, p.rolledBack)
	assert.Equal(t, 0, p.committed)
	assert.False(t, g.InProgress(), "failed run must release the guard")
}

func TestRunDiscardsOnPanic(t *testing.T) {
	p := &recordingParticipant{}
	g := newCounterGuard(p)

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = g.Run(context.Background(), "panic", func(_ context.Context, c *counter) error {
			c.n = 7
			panic("adversarial callback")
		})
	}()

	assert.Equal(t, 0, g.Snapshot().n)
	assert.Equal(t, 1, p.rolledBack)
	assert.Equal(t, 0, p.committed)
	assert.False(t, g.InProgress())

	// The guard is usable again.
	require.NoError(t, g.Run(context.Background(), "after", func(_ context.Context, c *counter) error {
		c.n = 1
		return nil
	}))
	assert.Equal(t, 1, g.Snapshot().n)
}

func TestNestedRunIsRejected(t *testing.T) {
	g := newCounterGuard()
	var nested error

	err := g.Run(context.Background(), "outer", func(ctx context.Context, c *counter) error {
		c.n++
		nested = g.Run(ctx, "inner", func(_ context.Context, inner *counter) error {
			inner.n += 100
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, nested, ErrBusy)
	assert.Equal(t, 1, g.Snapshot().n, "nested run must not leak into state")
}

func TestSnapshotDuringRunSeesCommittedState(t *testing.T) {
	g := newCounterGuard()
	require.NoError(t, g.Run(context.Background(), "seed", func(_ context.Context, c *counter) error {
		c.n = 5
		return nil
	}))

	err := g.Run(context.Background(), "observe", func(_ context.Context, c *counter) error {
		c.n = 6
		assert.Equal(t, 5, g.Snapshot().n)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, g.Snapshot().n)
}

func TestConcurrentRunsSerialize(t *testing.T) {
	g := newCounterGuard()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, busy := 0, 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Run(context.Background(), "inc", func(_ context.Context, c *counter) error {
				c.n++
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrBusy):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded+busy)
	assert.Equal(t, succeeded, g.Snapshot().n, "every successful run counted exactly once")
}

func TestResetWhileBusy(t *testing.T) {
	g := newCounterGuard()
	err := g.Run(context.Background(), "outer", func(_ context.Context, _ *counter) error {
		return g.Reset(&counter{n: 42})
	})
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 0, g.Snapshot().n)

	require.NoError(t, g.Reset(&counter{n: 42}))
	assert.Equal(t, 42, g.Snapshot().n)
}
