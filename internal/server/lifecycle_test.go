package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recorder records the order services stop in.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) blocking(name string) ServiceFunc {
	return func(ctx context.Context) error {
		<-ctx.Done()
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) stopped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func runAsync(lc *Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not stop in time")
		return nil
	}
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	rec := &recorder{}
	lc.Add("storage", rec.blocking("storage"))
	lc.Add("ticker", rec.blocking("ticker"))
	lc.Add("telnet", rec.blocking("telnet"))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"telnet", "ticker", "storage"}, rec.stopped())
}

func TestLifecycle_ServiceFailureStopsOthers(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	rec := &recorder{}
	boom := errors.New("bind failed")
	lc.Add("ticker", rec.blocking("ticker"))
	lc.Add("telnet", ServiceFunc(func(context.Context) error { return boom }))

	err := wait(t, runAsync(lc, context.Background()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service telnet")
	assert.Equal(t, []string{"ticker"}, rec.stopped())
}

func TestLifecycle_CleanExitShutsDown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	rec := &recorder{}
	lc.Add("ticker", rec.blocking("ticker"))
	lc.Add("oneshot", ServiceFunc(func(context.Context) error { return nil }))

	require.NoError(t, wait(t, runAsync(lc, context.Background())))
	assert.Equal(t, []string{"ticker"}, rec.stopped())
}

func TestLifecycle_StopTimeout(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.SetStopTimeout(50 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	lc.Add("stuck", ServiceFunc(func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	cancel()

	err := wait(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not stop within")
}

func TestLifecycle_NoServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, lc.Run(ctx))
}
