package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/game"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const progressWidth = 10

// handleStartRound deals a new round from the user's words
func (h *Handler) handleStartRound(c tele.Context) error {
	userID := c.Sender().ID
	h.ResetState(userID)

	sess, err := h.session(userID)
	if err != nil {
		return c.Send(msgError)
	}
	defer sess.Unlock()

	out, err := sess.Board.Dispatch(game.Event{Kind: game.InteractionStart, Words: sess.Words.Pairs()})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientWords) {
			menu := &tele.ReplyMarkup{}
			menu.Inline(menu.Row(btnAddPair, btnBulkAdd), menu.Row(btnMainMenu))
			return h.reply(c, out.Message, menu)
		}
		h.logger.Error("Failed to start round", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(msgError)
	}

	h.logger.Info("Round started",
		zap.Int64("user_id", userID),
		zap.Int("pairs", sess.Words.Len()),
	)

	return h.reply(c, boardText(sess.Board, ""), boardMarkup(sess.Board))
}

// handlePick selects a pinyin card and pronounces it
func (h *Handler) handlePick(c tele.Context, data string) error {
	id, err := strconv.Atoi(strings.TrimPrefix(data, "pick_"))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid card"})
	}

	sess, err := h.session(c.Sender().ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	defer sess.Unlock()

	out, err := sess.Board.Dispatch(game.Event{Kind: game.InteractionPick, PairID: id})
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	if out.Picked == nil {
		return c.Respond()
	}

	return h.reply(c, boardText(sess.Board, out.Message), boardMarkup(sess.Board))
}

// handleDrop drops the selected pinyin card on an English card
func (h *Handler) handleDrop(c tele.Context, data string) error {
	id, err := strconv.Atoi(strings.TrimPrefix(data, "drop_"))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid card"})
	}

	userID := c.Sender().ID
	sess, err := h.session(userID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	defer sess.Unlock()

	out, err := sess.Board.Dispatch(game.Event{Kind: game.InteractionDrop, PairID: id})
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}

	if !out.Match.Matched {
		text := out.Message
		if text == "" {
			text = "Not a match"
		}
		return c.Respond(&tele.CallbackResponse{Text: text})
	}

	if out.Match.RoundComplete {
		h.logger.Info("Round completed", zap.Int64("user_id", userID))
		markup := &tele.ReplyMarkup{}
		markup.Inline(
			markup.Row(btnStartRound),
			markup.Row(btnMainMenu),
		)
		return h.reply(c, boardText(sess.Board, out.Message), markup)
	}

	return h.reply(c, boardText(sess.Board, ""), boardMarkup(sess.Board))
}

// boardText renders the score line, a progress bar and an optional note
func boardText(b *game.Board, note string) string {
	e := b.Engine()

	var sb strings.Builder
	sb.WriteString("🀄 Match each pinyin card with its English meaning.\n")
	sb.WriteString("Tap a pinyin card, then its English card.\n\n")
	fmt.Fprintf(&sb, "%s\n%s", e.ScoreText(), progressBar(e.Progress()))

	if id, ok := b.Selected(); ok {
		if card, found := e.Card(domain.CardKey{PairID: id, Side: domain.SidePinyin}); found {
			fmt.Fprintf(&sb, "\n\nSelected: %s", card.Text)
		}
	}
	if note != "" {
		fmt.Fprintf(&sb, "\n\n%s", note)
	}
	return sb.String()
}

func progressBar(p float64) string {
	filled := int(p*progressWidth + 0.5)
	if filled > progressWidth {
		filled = progressWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", progressWidth-filled)
}

// boardMarkup lays the round out as two columns: pinyin on the left,
// English on the right
func boardMarkup(b *game.Board) *tele.ReplyMarkup {
	e := b.Engine()
	pinyin := e.PinyinCards()
	english := e.EnglishCards()
	selected, hasSelection := b.Selected()

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(pinyin)+1)

	for i := range pinyin {
		p, en := pinyin[i], english[i]

		pText := p.Text
		switch {
		case p.Matched:
			pText = "✅ " + p.Text
		case hasSelection && p.PairID == selected:
			pText = "👉 " + p.Text
		}
		enText := en.Text
		if en.Matched {
			enText = "✅ " + en.Text
		}

		rows = append(rows, markup.Row(
			markup.Data(pText, "pick_"+strconv.Itoa(p.PairID)),
			markup.Data(enText, "drop_"+strconv.Itoa(en.PairID)),
		))
	}

	rows = append(rows, markup.Row(btnStopAudio, btnMainMenu))
	markup.Inline(rows...)
	return markup
}
