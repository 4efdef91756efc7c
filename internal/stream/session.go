// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"context"
	"sync"
)

// Session serializes ownership of one answer-state slot across
// successive, possibly overlapping queries. Each query gets a
// monotonically increasing epoch; only the holder of the current epoch
// may publish into the slot. Beginning a new query both advances the
// epoch and cancels the previous query's context, so a superseded
// stream is torn down and its late records are discarded even if the
// teardown races the reads.
type Session struct {
	mu     sync.Mutex
	epoch  uint64
	cancel context.CancelFunc
}

// Begin supersedes any in-flight query: the previous context is
// cancelled and a new epoch is issued. The returned context is cancelled
// in turn when the next Begin or Close happens.
func (s *Session) Begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.epoch++
	return ctx, s.epoch
}

// Current reports whether epoch still owns the state slot.
func (s *Session) Current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return epoch == s.epoch
}

// Guard wraps fn so it only fires while epoch is current. Stale updates
// from a superseded stream are silently dropped.
func (s *Session) Guard(epoch uint64, fn UpdateFunc) UpdateFunc {
	if fn == nil {
		return nil
	}
	return func(st State) {
		if s.Current(epoch) {
			fn(st)
		}
	}
}

// Close cancels the in-flight query, if any, without starting another.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
}
