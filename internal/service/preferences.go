package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/repository"
)

const (
	voiceNameKey    = "voice-name"
	voiceEnabledKey = "voice-enabled"
)

// PreferenceStore keeps the pinned voice and the voice output switch
type PreferenceStore struct {
	store repository.KVStore

	mu   sync.RWMutex
	pref domain.VoicePreference
}

// NewPreferenceStore creates a store holding the default preference
func NewPreferenceStore(store repository.KVStore) *PreferenceStore {
	return &PreferenceStore{
		store: store,
		pref:  domain.DefaultVoicePreference(),
	}
}

// Load reads the persisted preference. An unreadable switch value counts as enabled.
func (s *PreferenceStore) Load(ctx context.Context) (domain.VoicePreference, error) {
	pref := domain.DefaultVoicePreference()

	name, ok, err := s.store.Get(ctx, voiceNameKey)
	if err != nil {
		return pref, fmt.Errorf("failed to load voice name: %w", err)
	}
	if ok {
		pref.VoiceName = name
	}

	raw, ok, err := s.store.Get(ctx, voiceEnabledKey)
	if err != nil {
		return pref, fmt.Errorf("failed to load voice switch: %w", err)
	}
	if ok {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			pref.Enabled = enabled
		}
	}

	s.mu.Lock()
	s.pref = pref
	s.mu.Unlock()

	return pref, nil
}

// Current returns the preference in effect
func (s *PreferenceStore) Current() domain.VoicePreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pref
}

// SetVoice pins a local voice by name
func (s *PreferenceStore) SetVoice(ctx context.Context, name string) error {
	if name == "" {
		return s.ClearVoice(ctx)
	}
	if err := s.store.Set(ctx, voiceNameKey, name); err != nil {
		return fmt.Errorf("failed to save voice name: %w", err)
	}

	s.mu.Lock()
	s.pref.VoiceName = name
	s.mu.Unlock()
	return nil
}

// ClearVoice returns to automatic voice selection
func (s *PreferenceStore) ClearVoice(ctx context.Context) error {
	if err := s.store.Delete(ctx, voiceNameKey); err != nil {
		return fmt.Errorf("failed to clear voice name: %w", err)
	}

	s.mu.Lock()
	s.pref.VoiceName = ""
	s.mu.Unlock()
	return nil
}

// SetEnabled switches voice output on or off
func (s *PreferenceStore) SetEnabled(ctx context.Context, enabled bool) error {
	if err := s.store.Set(ctx, voiceEnabledKey, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to save voice switch: %w", err)
	}

	s.mu.Lock()
	s.pref.Enabled = enabled
	s.mu.Unlock()
	return nil
}
