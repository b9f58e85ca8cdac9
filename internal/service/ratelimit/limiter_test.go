package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)}
}

func TestAdmitEnforcesCapacityWithinWindow(t *testing.T) {
	c := newClock()
	l := New(WithClock(c.Now))

	for i := 0; i < DefaultCapacity; i++ {
		require.True(t, l.Admit("10.0.0.1"), "request %d should be admitted", i+1)
		c.Advance(500 * time.Millisecond)
	}
	assert.False(t, l.Admit("10.0.0.1"), "61st request inside the window is rejected")

	// other clients have their own budget
	assert.True(t, l.Admit("10.0.0.2"))
}

func TestAdmitResumesAfterWindowElapses(t *testing.T) {
	c := newClock()
	l := New(WithClock(c.Now))

	for i := 0; i < DefaultCapacity; i++ {
		require.True(t, l.Admit("client"))
	}
	require.False(t, l.Admit("client"))

	c.Advance(59 * time.Second)
	assert.False(t, l.Admit("client"))

	c.Advance(time.Second)
	assert.True(t, l.Admit("client"))
}

func TestRejectedRequestsAreNotRecorded(t *testing.T) {
	c := newClock()
	l := New(WithClock(c.Now), WithCapacity(2), WithWindow(10*time.Second))

	require.True(t, l.Admit("a"))
	c.Advance(5 * time.Second)
	require.True(t, l.Admit("a"))
	for i := 0; i < 5; i++ {
		require.False(t, l.Admit("a"))
	}

	// only the first admit has aged out; rejected calls did not extend the window
	c.Advance(5 * time.Second)
	assert.True(t, l.Admit("a"))
	assert.False(t, l.Admit("a"))
}

func TestSweepRemovesEmptyRecords(t *testing.T) {
	c := newClock()
	l := New(WithClock(c.Now))

	for i := 0; i < 10; i++ {
		l.Admit(fmt.Sprintf("client-%d", i))
	}
	c.Advance(30 * time.Second)
	l.Admit("client-0")
	require.Equal(t, 10, l.Clients())

	assert.Equal(t, 0, l.Sweep())

	c.Advance(31 * time.Second)
	assert.Equal(t, 9, l.Sweep())
	assert.Equal(t, 1, l.Clients())
}

func TestStartStopsOnCancel(t *testing.T) {
	l := New(WithWindow(5 * time.Millisecond))
	l.Admit("x")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.Clients() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
