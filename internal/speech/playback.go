package speech

import (
	"context"
	"sync"
)

// Playback is a started audio stream.
type Playback interface {
	Stop()
}

// Player starts playing a clip.
type Player interface {
	Play(ctx context.Context, clip Clip) (Playback, error)
}

// Slot holds the single current playback. Replacing it stops the previous
// one unconditionally; nothing is queued.
type Slot struct {
	mu      sync.Mutex
	current Playback
}

// Replace stops the current playback, if any, and installs p.
func (s *Slot) Replace(p Playback) {
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
}

// Stop stops and releases the current playback.
func (s *Slot) Stop() {
	s.Replace(nil)
}

// Active reports whether a playback is installed.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
