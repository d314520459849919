package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
)

func newSweeperFixture(t *testing.T) (*fixture, *ExpirationSweeper) {
	t.Helper()
	f := newFixture(t)
	sw := NewExpirationSweeper(f.repo, SweeperOptions{
		Enabled:  true,
		Interval: time.Hour,
		Clock:    f.clock,
		Logger:   logrus.New(),
	})
	return f, sw
}

func TestSweepOnce_ExpiresLapsedAssignments(t *testing.T) {
	f, sw := newSweeperFixture(t)
	end := testNow.Add(-time.Hour)
	lapsed := f.seedAssignment(t, testNow.AddDate(0, -1, 0), &end, assignment.StatusActive)
	openEnded := f.seedAssignment(t, testNow.AddDate(0, -1, 0), nil, assignment.StatusActive)

	require.NoError(t, sw.sweepOnce(testCtx()))
	require.Equal(t, assignment.StatusExpired, f.repo.get(lapsed.ID()).Status())
	require.Equal(t, assignment.StatusActive, f.repo.get(openEnded.ID()).Status(), "open-ended assignments never expire")
}

func TestSweepOnce_BoundaryIsStrict(t *testing.T) {
	f, sw := newSweeperFixture(t)
	// end date exactly now: not swept, the comparison is strict
	exactEnd := testNow
	boundary := f.seedAssignment(t, testNow.AddDate(0, -1, 0), &exactEnd, assignment.StatusActive)

	require.NoError(t, sw.sweepOnce(testCtx()))
	require.Equal(t, assignment.StatusActive, f.repo.get(boundary.ID()).Status())

	// one microsecond later it is swept
	f.clock.Advance(time.Microsecond)
	require.NoError(t, sw.sweepOnce(testCtx()))
	require.Equal(t, assignment.StatusExpired, f.repo.get(boundary.ID()).Status())
}

func TestSweep_DoesNotTouchCancelled(t *testing.T) {
	f, sw := newSweeperFixture(t)
	// lapsed but cancelled: the sweep filter excludes cancelled records so
	// a manual cancellation is never silently turned into an expiry
	end := testNow.Add(-time.Hour)
	cancelled := f.seedAssignment(t, testNow.AddDate(0, -1, 0), &end, assignment.StatusCancelled)

	require.NoError(t, sw.sweepOnce(testCtx()))
	require.Equal(t, assignment.StatusCancelled, f.repo.get(cancelled.ID()).Status())
}

func TestSweeper_DisabledReturnsImmediately(t *testing.T) {
	f := newFixture(t)
	sw := NewExpirationSweeper(f.repo, SweeperOptions{Enabled: false})
	require.NoError(t, sw.Run(context.Background()))
}

func TestSweeper_RunSweepsOnTick(t *testing.T) {
	f, sw := newSweeperFixture(t)
	end := testNow.Add(-time.Hour)
	lapsed := f.seedAssignment(t, testNow.AddDate(0, -1, 0), &end, assignment.StatusActive)

	ctx, cancel := context.WithCancel(testCtx())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Hour)

	require.Eventually(t, func() bool {
		return f.repo.get(lapsed.ID()).Status() == assignment.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSweeper_FailedCycleDoesNotStopTheLoop(t *testing.T) {
	f, sw := newSweeperFixture(t)
	f.repo.expireErr = errors.New("storage hiccup")
	end := testNow.Add(-time.Hour)
	lapsed := f.seedAssignment(t, testNow.AddDate(0, -1, 0), &end, assignment.StatusActive)

	ctx, cancel := context.WithCancel(testCtx())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Hour)

	// first cycle fails and is swallowed
	require.Eventually(t, func() bool {
		f.repo.mu.Lock()
		defer f.repo.mu.Unlock()
		return f.repo.expireCalls >= 1
	}, 2*time.Second, 10*time.Millisecond)

	f.clock.Advance(time.Hour)
	require.Eventually(t, func() bool {
		return f.repo.get(lapsed.ID()).Status() == assignment.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
