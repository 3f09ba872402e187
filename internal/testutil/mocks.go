package testutil

import (
	"context"
	"sync"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/speech"

	"github.com/stretchr/testify/mock"
)

// MockKVStore is a mock for repository.KVStore
type MockKVStore struct {
	mock.Mock
}

func (m *MockKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKVStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockRemoteSynthesizer is a mock for speech.RemoteSynthesizer
type MockRemoteSynthesizer struct {
	mock.Mock
}

func (m *MockRemoteSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockLocalSynthesizer is a mock for speech.LocalSynthesizer
type MockLocalSynthesizer struct {
	mock.Mock
}

func (m *MockLocalSynthesizer) Voices(ctx context.Context) ([]domain.Voice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Voice), args.Error(1)
}

func (m *MockLocalSynthesizer) Enqueue(ctx context.Context, u speech.Utterance) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockLocalSynthesizer) Cancel() {
	m.Called()
}

// FakePlayback records whether it was stopped
type FakePlayback struct {
	mu      sync.Mutex
	Clip    speech.Clip
	stopped bool
}

func (p *FakePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

// Stopped reports whether Stop was called
func (p *FakePlayback) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// FakePlayer records every clip it is asked to play
type FakePlayer struct {
	mu        sync.Mutex
	Err       error
	Playbacks []*FakePlayback
}

func (p *FakePlayer) Play(_ context.Context, clip speech.Clip) (speech.Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	pb := &FakePlayback{Clip: clip}
	p.Playbacks = append(p.Playbacks, pb)
	return pb, nil
}

// Played returns the playbacks started so far
func (p *FakePlayer) Played() []*FakePlayback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*FakePlayback(nil), p.Playbacks...)
}

// StaticPreferences is a speech.PreferenceSource with a fixed value
type StaticPreferences domain.VoicePreference

func (p StaticPreferences) Current() domain.VoicePreference {
	return domain.VoicePreference(p)
}
