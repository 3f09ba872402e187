package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pinyinmatch/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// wordsPerPage is the number of pairs shown on one word list page
const wordsPerPage = 20

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	ctx := context.Background()

	// Check authorization first
	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	// If not authorized, check password
	if !authorized {
		if !h.authService.CheckPassword(text) {
			return c.Send("Wrong password.")
		}
		if err := h.authService.AuthorizeUser(ctx, userID); err != nil {
			h.logger.Error("Failed to authorize user", zap.Error(err))
			return c.Send(msgError)
		}

		h.logger.Info("User authorized", zap.Int64("user_id", userID))
		h.ResetState(userID)
		return c.Send("✅ Access granted!\n\n"+msgMainMenu, mainMenuMarkup())
	}

	sess, err := h.session(userID)
	if err != nil {
		return c.Send(msgError)
	}
	defer sess.Unlock()

	// User is authorized, handle based on state
	state := h.GetState(userID)

	switch state.State {
	case domain.StateWaitingEnglish:
		pair := domain.WordPair{Pinyin: state.PendingPinyin, English: text}
		if err := sess.Words.Add(ctx, pair); err != nil {
			h.logger.Error("Failed to save word pair",
				zap.Error(err),
				zap.Int64("user_id", userID),
			)
			return c.Send("Could not save the pair. Please try again.", cancelMarkup())
		}

		h.logger.Info("Word pair saved",
			zap.Int64("user_id", userID),
			zap.String("pinyin", pair.Pinyin),
			zap.String("english", pair.English),
		)

		// Wait for the next pinyin
		h.SetState(userID, &domain.StateData{State: domain.StateWaitingPinyin})

		return c.Send(
			fmt.Sprintf("✅ Saved: %s ↔ %s\n\nSend the next pinyin or go back with /start", pair.Pinyin, text),
			cancelMarkup(),
		)

	case domain.StateWaitingBulk:
		res, err := sess.Words.AddBulk(ctx, c.Text())
		if err != nil {
			h.logger.Error("Failed to save bulk pairs", zap.Error(err), zap.Int64("user_id", userID))
			return c.Send("Could not save the pairs. Please try again.", cancelMarkup())
		}

		h.logger.Info("Bulk pairs added",
			zap.Int64("user_id", userID),
			zap.Int("added", res.Added),
			zap.Int("skipped", res.Skipped),
		)

		if res.Added == 0 {
			return c.Send(res.Feedback(), cancelMarkup())
		}
		h.ResetState(userID)
		return c.Send(res.Feedback()+"\n\n"+msgMainMenu, mainMenuMarkup())

	case domain.StateWaitingPinyin:
		// Pinyin received, ask for its English
		h.SetState(userID, &domain.StateData{
			State:         domain.StateWaitingEnglish,
			PendingPinyin: text,
		})

		return c.Send(fmt.Sprintf("Now send the English for “%s”", text), cancelMarkup())

	default:
		// Idle state - start pair input flow with this pinyin
		h.SetState(userID, &domain.StateData{
			State:         domain.StateWaitingEnglish,
			PendingPinyin: text,
		})

		return c.Send(fmt.Sprintf("Now send the English for “%s”", text), cancelMarkup())
	}
}

// handleAddPair starts the two-step pair input
func (h *Handler) handleAddPair(c tele.Context) error {
	h.SetState(c.Sender().ID, &domain.StateData{State: domain.StateWaitingPinyin})
	return h.reply(c, "➕ Send the pinyin (for example: nǐ hǎo)", cancelMarkup())
}

// handleBulkAdd waits for a multi-line message of pairs
func (h *Handler) handleBulkAdd(c tele.Context) error {
	h.SetState(c.Sender().ID, &domain.StateData{State: domain.StateWaitingBulk})
	return h.reply(c,
		"📋 Send one pair per line:\n\nnǐ hǎo - hello\nxièxie, thank you\nzàijiàn: goodbye",
		cancelMarkup(),
	)
}

// handleListWords shows the first page of the word list
func (h *Handler) handleListWords(c tele.Context) error {
	return h.showWordPage(c, 0)
}

// handlePage shows the word list page carried in data
func (h *Handler) handlePage(c tele.Context, data string) error {
	page, err := strconv.Atoi(strings.TrimPrefix(data, "page_"))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}
	return h.showWordPage(c, page)
}

func (h *Handler) showWordPage(c tele.Context, page int) error {
	sess, err := h.session(c.Sender().ID)
	if err != nil {
		return c.Send(msgError)
	}
	defer sess.Unlock()

	pairs := sess.Words.Pairs()
	if len(pairs) == 0 {
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(btnAddPair, btnBulkAdd), menu.Row(btnMainMenu))
		return h.reply(c, "You have no word pairs yet.", menu)
	}

	return h.reply(c, wordListText(pairs, page), wordListMarkup(pairs, page))
}

func pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + wordsPerPage - 1) / wordsPerPage
}

// pageBounds clamps page and returns it with the slice bounds of its pairs
func pageBounds(n, page int) (int, int, int) {
	if last := pageCount(n) - 1; page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	start := page * wordsPerPage
	end := start + wordsPerPage
	if end > n {
		end = n
	}
	return page, start, end
}

// wordListText renders one numbered page of the word list
func wordListText(pairs []domain.WordPair, page int) string {
	page, start, end := pageBounds(len(pairs), page)

	var b strings.Builder
	fmt.Fprintf(&b, "📚 Your words (%d)", len(pairs))
	if pages := pageCount(len(pairs)); pages > 1 {
		fmt.Fprintf(&b, ", page %d/%d", page+1, pages)
	}
	b.WriteString(":\n\n")
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%d. %s ↔ %s\n", i+1, pairs[i].Pinyin, pairs[i].English)
	}
	return b.String()
}

// wordListMarkup has one remove button per pair on the page and page navigation
func wordListMarkup(pairs []domain.WordPair, page int) *tele.ReplyMarkup {
	page, start, end := pageBounds(len(pairs), page)

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}

	var row tele.Row
	for i := start; i < end; i++ {
		row = append(row, markup.Data(fmt.Sprintf("✖ %d", i+1), "remove_"+strconv.Itoa(i)))
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav tele.Row
	if page > 0 {
		nav = append(nav, markup.Data("◀️ Prev", "page_"+strconv.Itoa(page-1)))
	}
	if page < pageCount(len(pairs))-1 {
		nav = append(nav, markup.Data("Next ▶️", "page_"+strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	rows = append(rows, markup.Row(btnClearWords), markup.Row(btnMainMenu))
	markup.Inline(rows...)
	return markup
}

// handleRemove deletes the pair at the index carried in data
func (h *Handler) handleRemove(c tele.Context, data string) error {
	index, err := strconv.Atoi(strings.TrimPrefix(data, "remove_"))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid pair"})
	}

	sess, err := h.session(c.Sender().ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	defer sess.Unlock()

	if err := sess.Words.RemoveAt(context.Background(), index); err != nil {
		if errors.Is(err, domain.ErrIndexOutOfRange) {
			return c.Respond(&tele.CallbackResponse{Text: "That pair is already gone"})
		}
		h.logger.Error("Failed to remove pair", zap.Error(err), zap.Int("index", index))
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}

	pairs := sess.Words.Pairs()
	if len(pairs) == 0 {
		return h.reply(c, "You have no word pairs yet.\n\n"+msgMainMenu, mainMenuMarkup())
	}
	page := index / wordsPerPage
	return h.reply(c, wordListText(pairs, page), wordListMarkup(pairs, page))
}

// handleClearWords asks for confirmation before clearing
func (h *Handler) handleClearWords(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnClearConfirm),
		markup.Row(btnCancel),
	)
	return h.reply(c, "Delete all word pairs?", markup)
}

// handleClearConfirm removes every pair
func (h *Handler) handleClearConfirm(c tele.Context) error {
	userID := c.Sender().ID

	sess, err := h.session(userID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}
	defer sess.Unlock()

	if err := sess.Words.Clear(context.Background()); err != nil {
		h.logger.Error("Failed to clear pairs", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: msgError})
	}

	h.logger.Info("Word pairs cleared", zap.Int64("user_id", userID))
	return h.reply(c, "🗑 All pairs deleted.\n\n"+msgMainMenu, mainMenuMarkup())
}
