package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"pinyinmatch/internal/speech"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// warningTTL is how long a warning stays in the chat
const warningTTL = 5 * time.Second

// Messenger is the part of *tele.Bot the chat player needs
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// chatPlayer plays clips by sending them as audio messages
type chatPlayer struct {
	bot    Messenger
	to     tele.Recipient
	logger *zap.Logger
}

func newChatPlayer(bot Messenger, to tele.Recipient, logger *zap.Logger) *chatPlayer {
	return &chatPlayer{bot: bot, to: to, logger: logger}
}

// Play sends clip to the chat. Stopping the playback deletes the message.
func (p *chatPlayer) Play(ctx context.Context, clip speech.Clip) (speech.Playback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := tele.FromReader(bytes.NewReader(clip.Data))

	var what interface{}
	if clip.MIME == "audio/mpeg" {
		what = &tele.Audio{
			File:     file,
			FileName: clip.FileName,
			Title:    clip.Title,
			MIME:     clip.MIME,
			Duration: int(clip.Duration.Round(time.Second) / time.Second),
		}
	} else {
		what = &tele.Document{
			File:     file,
			FileName: clip.FileName,
			MIME:     clip.MIME,
			Caption:  clip.Title,
		}
	}

	msg, err := p.bot.Send(p.to, what, tele.Silent)
	if err != nil {
		return nil, fmt.Errorf("failed to send audio: %w", err)
	}
	return &chatPlayback{bot: p.bot, msg: msg, logger: p.logger}, nil
}

type chatPlayback struct {
	bot    Messenger
	msg    *tele.Message
	logger *zap.Logger
}

func (p *chatPlayback) Stop() {
	if err := p.bot.Delete(p.msg); err != nil {
		p.logger.Debug("Failed to delete audio message", zap.Error(err))
	}
}

// chatWarner sends warnings that delete themselves after warningTTL
func chatWarner(bot Messenger, to tele.Recipient, logger *zap.Logger) func(string) {
	return func(text string) {
		msg, err := bot.Send(to, "⚠️ "+text, tele.Silent)
		if err != nil {
			logger.Warn("Failed to send warning", zap.Error(err))
			return
		}
		time.AfterFunc(warningTTL, func() {
			if err := bot.Delete(msg); err != nil {
				logger.Debug("Failed to delete warning", zap.Error(err))
			}
		})
	}
}
