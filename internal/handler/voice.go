package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/voice"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxVoiceButtons caps the voices offered in the voice menu
const maxVoiceButtons = 12

// menuVoices lists the voices offered for pinning: Chinese first, then English
func menuVoices(catalog []domain.Voice) []domain.Voice {
	var zh, en []domain.Voice
	for _, v := range catalog {
		switch {
		case voice.IsChinese(v.Lang):
			zh = append(zh, v)
		case strings.HasPrefix(strings.ToLower(v.Lang), "en"):
			en = append(en, v)
		}
	}
	out := append(zh, en...)
	if len(out) > maxVoiceButtons {
		out = out[:maxVoiceButtons]
	}
	return out
}

// voiceMenuText describes the current preference
func voiceMenuText(pref domain.VoicePreference, remote bool) string {
	var b strings.Builder
	b.WriteString("🔊 Voice settings\n\n")

	if pref.Enabled {
		b.WriteString("Pronunciation: on\n")
	} else {
		b.WriteString("Pronunciation: muted\n")
	}
	if pref.VoiceName == "" {
		b.WriteString("Local voice: automatic\n")
	} else {
		fmt.Fprintf(&b, "Local voice: %s\n", pref.VoiceName)
	}
	if remote {
		b.WriteString("\nCloud voice is used first; the local voice is the fallback.")
	}
	return b.String()
}

// handleVoiceMenu shows the voice preference and the pinnable voices
func (h *Handler) handleVoiceMenu(c tele.Context) error {
	sess, err := h.session(c.Sender().ID)
	if err != nil {
		return c.Send(msgError)
	}
	defer sess.Unlock()

	var voices []domain.Voice
	if sess.Local != nil {
		catalog, err := sess.Local.Voices(context.Background())
		if err != nil {
			h.logger.Warn("Local voice catalog unavailable", zap.Error(err))
		}
		voices = menuVoices(catalog)
	}

	pref := sess.Prefs.Current()
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	for i, v := range voices {
		text := fmt.Sprintf("%s (%s)", v.Name, v.Lang)
		if v.Name == pref.VoiceName {
			text = "📌 " + text
		}
		rows = append(rows, markup.Row(markup.Data(text, "pin_"+strconv.Itoa(i))))
	}
	rows = append(rows,
		markup.Row(btnVoiceAuto, btnVoiceToggle),
		markup.Row(btnMainMenu),
	)
	markup.Inline(rows...)

	return h.reply(c, voiceMenuText(pref, sess.RemoteEnabled), markup)
}

// handleVoicePick pins the voice at the menu index carried in data
func (h *Handler) handleVoicePick(c tele.Context, data string) error {
	index, err := strconv.Atoi(strings.TrimPrefix(data, "pin_"))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid voice"})
	}

	name, err := h.menuVoiceName(c.Sender().ID, index)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "That voice is no longer available"})
	}

	if err := h.updatePreference(c, func(ctx context.Context, userID int64) error {
		sess, err := h.session(userID)
		if err != nil {
			return err
		}
		defer sess.Unlock()
		return sess.Prefs.SetVoice(ctx, name)
	}); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	return h.handleVoiceMenu(c)
}

func (h *Handler) menuVoiceName(userID int64, index int) (string, error) {
	sess, err := h.session(userID)
	if err != nil {
		return "", err
	}
	defer sess.Unlock()

	if sess.Local == nil {
		return "", domain.ErrNoVoice
	}
	catalog, err := sess.Local.Voices(context.Background())
	if err != nil {
		return "", err
	}
	voices := menuVoices(catalog)
	if index < 0 || index >= len(voices) {
		return "", domain.ErrIndexOutOfRange
	}
	return voices[index].Name, nil
}

// handleVoiceAuto clears the pinned voice
func (h *Handler) handleVoiceAuto(c tele.Context) error {
	if err := h.updatePreference(c, func(ctx context.Context, userID int64) error {
		sess, err := h.session(userID)
		if err != nil {
			return err
		}
		defer sess.Unlock()
		return sess.Prefs.ClearVoice(ctx)
	}); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	return h.handleVoiceMenu(c)
}

// handleVoiceToggle mutes or unmutes pronunciation
func (h *Handler) handleVoiceToggle(c tele.Context) error {
	if err := h.updatePreference(c, func(ctx context.Context, userID int64) error {
		sess, err := h.session(userID)
		if err != nil {
			return err
		}
		defer sess.Unlock()

		enabled := !sess.Prefs.Current().Enabled
		if !enabled {
			sess.Speech.Stop()
		}
		return sess.Prefs.SetEnabled(ctx, enabled)
	}); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	return h.handleVoiceMenu(c)
}

func (h *Handler) updatePreference(c tele.Context, fn func(ctx context.Context, userID int64) error) error {
	userID := c.Sender().ID
	if err := fn(context.Background(), userID); err != nil {
		h.logger.Error("Failed to update voice preference", zap.Error(err), zap.Int64("user_id", userID))
		return err
	}
	return nil
}

// handleStopAudio silences the current pronunciation
func (h *Handler) handleStopAudio(c tele.Context) error {
	sess, err := h.session(c.Sender().ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	defer sess.Unlock()

	sess.Speech.Stop()
	return c.Respond(&tele.CallbackResponse{Text: "Stopped"})
}
