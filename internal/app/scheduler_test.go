package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) DeactivateExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	exp := &countingExpirer{}
	s := NewScheduler(exp, 20*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := exp.calls.Load()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, after, exp.calls.Load(), "no runs after Stop")
}

func TestScheduler_SurvivesErrors(t *testing.T) {
	exp := &countingExpirer{err: errors.New("db down")}
	s := NewScheduler(exp, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return exp.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
