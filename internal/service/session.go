package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/game"
	"pinyinmatch/internal/repository"
	"pinyinmatch/internal/speech"

	"go.uber.org/zap"
)

// Session is one player's game context: their words, voice preference,
// board and speech output.
type Session struct {
	UserID int64
	Words  *WordStore
	Prefs  *PreferenceStore
	Board  *game.Board
	Speech *speech.Dispatcher
	// Local is nil when no local synthesizer is installed
	Local speech.LocalSynthesizer
	// RemoteEnabled reports whether cloud speech is configured
	RemoteEnabled bool

	mu       sync.Mutex
	lastSeen atomic.Int64
}

// SessionConfig holds the collaborators of a new session
type SessionConfig struct {
	UserID int64
	Store  repository.KVStore
	Remote speech.RemoteSynthesizer
	Local  speech.LocalSynthesizer
	Player speech.Player
	Warn   func(msg string)
	Logger *zap.Logger

	RemoteEnabled bool
}

// OpenSession loads the persisted state of a user and wires a board whose
// picks are pronounced.
func OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	logger := cfg.Logger.With(zap.Int64("user_id", cfg.UserID))

	words := NewWordStore(cfg.Store, logger)
	if _, err := words.Load(ctx); err != nil {
		return nil, err
	}
	prefs := NewPreferenceStore(cfg.Store)
	if _, err := prefs.Load(ctx); err != nil {
		return nil, err
	}

	dispatcher := speech.NewDispatcher(speech.Config{
		Remote:      cfg.Remote,
		Player:      cfg.Player,
		Local:       cfg.Local,
		Preferences: prefs,
		Warn:        cfg.Warn,
		Logger:      logger,
	})

	engine := game.NewEngine(nil)
	engine.OnComplete(func() {
		matched, _ := engine.Score()
		logger.Info("Round complete", zap.Int("pairs", matched))
	})

	board := game.NewBoard(engine, func(card domain.RoundCard) {
		go func() {
			if err := dispatcher.Speak(context.Background(), card.Text); err != nil {
				logger.Warn("Failed to pronounce card", zap.String("text", card.Text), zap.Error(err))
			}
		}()
	})

	s := &Session{
		UserID: cfg.UserID,
		Words:  words,
		Prefs:  prefs,
		Board:  board,
		Speech: dispatcher,
		Local:  cfg.Local,

		RemoteEnabled: cfg.RemoteEnabled,
	}
	s.touch()
	return s, nil
}

// Lock serializes the interactions of one user. It also marks the session as used.
func (s *Session) Lock() {
	s.mu.Lock()
	s.touch()
}

// Unlock releases the session
func (s *Session) Unlock() {
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Close silences the session's speech output
func (s *Session) Close() {
	s.Speech.Stop()
}

// SessionFactory opens the session of a user
type SessionFactory func(ctx context.Context, userID int64) (*Session, error)

// Sessions holds the open sessions, one per user
type Sessions struct {
	factory SessionFactory

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessions creates an empty registry that opens sessions with factory
func NewSessions(factory SessionFactory) *Sessions {
	return &Sessions{
		factory:  factory,
		sessions: make(map[int64]*Session),
	}
}

// Get returns the session of userID, opening it on first use
func (r *Sessions) Get(ctx context.Context, userID int64) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s, nil
	}

	s, err := r.factory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	r.sessions[userID] = s
	return s, nil
}

// Len returns the number of open sessions
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions not used since before cutoff and returns how many were closed
func (r *Sessions) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// CloseAll closes every session
func (r *Sessions) CloseAll() {
	r.EvictIdle(time.Now().Add(time.Hour))
}
