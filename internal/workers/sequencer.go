// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import "sync"

// Sequencer runs tasks asynchronously while keeping tasks that share a key
// in submission order. A task bound to several keys starts only after every
// earlier task sharing one of them has finished. Tasks without common keys
// run in parallel.
type Sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewSequencer() *Sequencer {
	return &Sequencer{tails: make(map[string]chan struct{})}
}

// Go schedules task behind the earlier tasks of keys.
func (s *Sequencer) Go(keys []string, task func()) {
	done := make(chan struct{})

	s.mu.Lock()
	waitFor := make([]chan struct{}, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if prev, ok := s.tails[key]; ok {
			waitFor = append(waitFor, prev)
		}
		s.tails[key] = done
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		for _, prev := range waitFor {
			<-prev
		}

		defer s.release(seen, done)
		task()
	}()
}

// Wait blocks until every scheduled task has finished.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

// Pending returns the number of keys with a queued or running task.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tails)
}

func (s *Sequencer) release(keys map[string]struct{}, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(done)
	for key := range keys {
		if s.tails[key] == done {
			delete(s.tails, key)
		}
	}
}
