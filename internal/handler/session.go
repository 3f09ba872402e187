package handler

import (
	"context"
	"fmt"

	"pinyinmatch/internal/repository"
	"pinyinmatch/internal/service"
	"pinyinmatch/internal/speech"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// SessionDeps are the shared collaborators of every chat session
type SessionDeps struct {
	Bot    Messenger
	Store  repository.KVStore
	Remote speech.RemoteSynthesizer
	// ESpeakBin is the local synthesizer binary; empty disables local speech
	ESpeakBin     string
	RemoteEnabled bool
	Logger        *zap.Logger
}

// NewSessionFactory opens sessions that keep their state under a per-user
// namespace and play audio into the user's chat.
func NewSessionFactory(deps SessionDeps) service.SessionFactory {
	return func(ctx context.Context, userID int64) (*service.Session, error) {
		to := &tele.User{ID: userID}
		logger := deps.Logger.With(zap.Int64("user_id", userID))
		player := newChatPlayer(deps.Bot, to, logger)

		cfg := service.SessionConfig{
			UserID:        userID,
			Store:         repository.Namespace(deps.Store, fmt.Sprintf("user:%d", userID)),
			Remote:        deps.Remote,
			Player:        player,
			Warn:          chatWarner(deps.Bot, to, logger),
			Logger:        deps.Logger,
			RemoteEnabled: deps.RemoteEnabled,
		}
		if deps.ESpeakBin != "" {
			cfg.Local = speech.NewESpeak(deps.ESpeakBin, player, logger)
		}
		return service.OpenSession(ctx, cfg)
	}
}
