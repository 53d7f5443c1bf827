package prefetch_test

import (
	"context"
	"errors"
	"murzlite/models"
	"murzlite/prefetch"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
}

func TestRefreshRetries(t *testing.T) {
	var calls atomic.Int32
	w := prefetch.NewWarmer("test", func(ctx context.Context) (models.Page[string], error) {
		if calls.Add(1) < 3 {
			return models.Page[string]{}, errors.New("flaky")
		}
		return models.Page[string]{Items: []string{"a"}, Received: 1}, nil
	}, time.Minute)
	w.NewBackOff = quickBackOff

	_, ok := w.Page()
	assert.False(t, ok)

	require.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, int32(3), calls.Load())

	page, ok := w.Page()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, page.Items)
}

func TestRefreshKeepsLastGoodPage(t *testing.T) {
	fail := false
	w := prefetch.NewWarmer("test", func(ctx context.Context) (models.Page[string], error) {
		if fail {
			return models.Page[string]{}, errors.New("down")
		}
		return models.Page[string]{Items: []string{"good"}}, nil
	}, time.Minute)
	w.NewBackOff = quickBackOff

	require.NoError(t, w.Refresh(context.Background()))

	fail = true
	assert.Error(t, w.Refresh(context.Background()))

	page, ok := w.Page()
	require.True(t, ok)
	assert.Equal(t, []string{"good"}, page.Items)
}

func TestRunStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	w := prefetch.NewWarmer("test", func(ctx context.Context) (models.Page[string], error) {
		calls.Add(1)
		return models.Page[string]{}, nil
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("warmer did not stop")
	}
}
