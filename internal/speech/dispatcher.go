// Package speech plays pronunciations: remote synthesis first, local voices
// as the fallback.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/voice"

	"go.uber.org/zap"
)

const (
	// LocalRate slows local voices down for learners.
	LocalRate = 0.6

	// DefaultSettleDelay lets the local voice catalog settle before speaking.
	DefaultSettleDelay = 250 * time.Millisecond
)

// PreferenceSource provides the current voice preference.
type PreferenceSource interface {
	Current() domain.VoicePreference
}

// Config wires a Dispatcher.
type Config struct {
	Remote      RemoteSynthesizer
	Player      Player
	Local       LocalSynthesizer
	Preferences PreferenceSource
	// Warn receives transient user-facing warnings.
	Warn        func(msg string)
	SettleDelay time.Duration
	Logger      *zap.Logger
}

// Dispatcher speaks text with at most one active audio stream. A new Speak
// supersedes the one in flight.
type Dispatcher struct {
	remote RemoteSynthesizer
	player Player
	local  LocalSynthesizer
	prefs  PreferenceSource
	warn   func(string)
	settle time.Duration
	logger *zap.Logger

	slot Slot

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher from cfg.
func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		remote: cfg.Remote,
		player: cfg.Player,
		local:  cfg.Local,
		prefs:  cfg.Preferences,
		warn:   cfg.Warn,
		settle: cfg.SettleDelay,
		logger: cfg.Logger,
	}
	if d.settle == 0 {
		d.settle = DefaultSettleDelay
	}
	if d.warn == nil {
		d.warn = func(string) {}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Speak pronounces text. It is a no-op when voice output is disabled or
// text is blank.
func (d *Dispatcher) Speak(ctx context.Context, text string) error {
	pref := domain.DefaultVoicePreference()
	if d.prefs != nil {
		pref = d.prefs.Current()
	}
	text = strings.TrimSpace(text)
	if !pref.Enabled || text == "" {
		return nil
	}

	ctx = d.supersede(ctx)

	err := d.speakRemote(ctx, text)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	d.logger.Info("Remote speech failed, using local voice",
		zap.String("text", text),
		zap.Error(err),
	)
	return d.speakLocal(ctx, text, pref.VoiceName)
}

// supersede cancels the Speak in flight and returns a context for the new one.
func (d *Dispatcher) supersede(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	return ctx
}

func (d *Dispatcher) speakRemote(ctx context.Context, text string) error {
	if d.remote == nil || d.player == nil {
		return fmt.Errorf("remote speech not configured")
	}

	audio, err := d.remote.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	clip, err := MP3Clip(audio, text)
	if err != nil {
		d.logger.Warn("Remote speech returned unplayable audio",
			zap.Int("bytes", len(audio)),
			zap.Error(err),
		)
		return err
	}

	d.slot.Stop()
	if d.local != nil {
		d.local.Cancel()
	}

	playback, err := d.player.Play(ctx, clip)
	if err != nil {
		return fmt.Errorf("failed to play remote speech: %w", err)
	}
	// a superseding Speak cancels under d.mu, so the clip is either
	// installed before it runs or dropped here
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		playback.Stop()
		return err
	}
	d.slot.Replace(playback)
	return nil
}

func (d *Dispatcher) speakLocal(ctx context.Context, text, pinned string) error {
	if d.local == nil {
		d.warn(voice.NoChineseVoiceWarning)
		return domain.ErrNoVoice
	}

	d.slot.Stop()
	d.local.Cancel()

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(d.settle):
	}

	voices, err := d.local.Voices(ctx)
	if err != nil {
		d.logger.Warn("Local voice catalog unavailable", zap.Error(err))
	}

	res := voice.ResolveForSpeech(pinned, voices, text)
	if res.Warning != "" {
		d.warn(res.Warning)
	}

	err = d.local.Enqueue(ctx, Utterance{
		Text:   res.Text,
		Voice:  res.Voice,
		Lang:   res.Lang,
		Rate:   LocalRate,
		Pitch:  1,
		Volume: 1,
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("local speech failed: %w", err)
	}
	return nil
}

// Stop silences any playback and abandons the Speak in flight.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.slot.Stop()
	if d.local != nil {
		d.local.Cancel()
	}
}
