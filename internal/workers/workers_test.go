// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Run was called.
type mockWorker struct {
	runCount atomic.Int64
	err      error
}

func (m *mockWorker) Run(ctx context.Context) error {
	m.runCount.Add(1)
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return nil
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ctx, cancel := context.WithCancel(context.Background())
	ws := NewWorkers(w1, w2, w3)

	errCh := make(chan error, 1)
	go func() { errCh <- ws.Run(ctx) }()

	require.Eventually(t, func() bool {
		return w1.runCount.Load() == 1 && w2.runCount.Load() == 1 && w3.runCount.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestWorkers_Run_Empty(t *testing.T) {
	// Should not block or fail on an empty workers list
	assert.NoError(t, NewWorkers().Run(context.Background()))
	assert.NoError(t, (&Workers{}).Run(context.Background()))
}

func TestWorkers_Run_FailureCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	healthy := &mockWorker{}

	err := NewWorkers(healthy, &mockWorker{err: boom}).Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), healthy.runCount.Load())
}

func TestWorkerFunc(t *testing.T) {
	called := false
	w := WorkerFunc(func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, w.Run(context.Background()))
	assert.True(t, called)
}

func TestSequencer_SameKeyRunsInOrder(t *testing.T) {
	s := NewSequencer()

	var (
		mu    sync.Mutex
		order []int
	)
	for i := 0; i < 20; i++ {
		s.Go([]string{"doc"}, func() {
			// earlier tasks sleep longer; order must still hold
			time.Sleep(time.Duration(20-i) * 100 * time.Microsecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	s.Wait()

	expected := make([]int, 20)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, order)
	assert.Zero(t, s.Pending())
}

func TestSequencer_DistinctKeysRunInParallel(t *testing.T) {
	s := NewSequencer()
	release := make(chan struct{})
	var finished atomic.Bool

	s.Go([]string{"a"}, func() { <-release })
	s.Go([]string{"b"}, func() { finished.Store(true) })

	assert.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
	close(release)
	s.Wait()
}

func TestSequencer_MultiKeyTaskWaitsForAll(t *testing.T) {
	s := NewSequencer()
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})
	var bulkRan atomic.Bool

	s.Go([]string{"a"}, func() { <-releaseA })
	s.Go([]string{"b"}, func() { <-releaseB })
	s.Go([]string{"a", "b", "a"}, func() { bulkRan.Store(true) })

	close(releaseA)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, bulkRan.Load())

	close(releaseB)
	s.Wait()
	assert.True(t, bulkRan.Load())
	assert.Zero(t, s.Pending())
}
