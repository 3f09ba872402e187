package handler

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// If message is not modified, it means it was already edited by another callback
	// Just acknowledge and return nil - don't send new message
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// callbackRoute is a handler for dynamic buttons sharing a data prefix
type callbackRoute struct {
	prefix string
	handle func(h *Handler, c tele.Context, data string) error
}

var callbackRoutes = []callbackRoute{
	{prefix: "pick_", handle: (*Handler).handlePick},
	{prefix: "drop_", handle: (*Handler).handleDrop},
	{prefix: "remove_", handle: (*Handler).handleRemove},
	{prefix: "pin_", handle: (*Handler).handleVoicePick},
	{prefix: "page_", handle: (*Handler).handlePage},
}

// staticRoutes serve buttons whose Unique did not reach a registered handler
var staticRoutes = map[string]func(h *Handler, c tele.Context) error{
	btnAddPair.Unique:      (*Handler).handleAddPair,
	btnBulkAdd.Unique:      (*Handler).handleBulkAdd,
	btnListWords.Unique:    (*Handler).handleListWords,
	btnClearWords.Unique:   (*Handler).handleClearWords,
	btnClearConfirm.Unique: (*Handler).handleClearConfirm,
	btnStartRound.Unique:   (*Handler).handleStartRound,
	btnVoiceMenu.Unique:    (*Handler).handleVoiceMenu,
	btnVoiceAuto.Unique:    (*Handler).handleVoiceAuto,
	btnVoiceToggle.Unique:  (*Handler).handleVoiceToggle,
	btnStopAudio.Unique:    (*Handler).handleStopAudio,
	btnCancel.Unique:       (*Handler).handleCancel,
	btnMainMenu.Unique:     (*Handler).handleStart,
}

// routeCallback finds the dynamic route for data
func routeCallback(data string) (callbackRoute, bool) {
	for _, r := range callbackRoutes {
		if strings.HasPrefix(data, r.prefix) {
			return r, true
		}
	}
	return callbackRoute{}, false
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	if fn, ok := staticRoutes[callback.Unique]; ok {
		return fn(h, c)
	}
	if fn, ok := staticRoutes[data]; ok {
		return fn(h, c)
	}

	// Handle by Data prefix (dynamic buttons)
	if r, ok := routeCallback(data); ok {
		return r.handle(h, c, data)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleCancel cancels current operation and resets state
func (h *Handler) handleCancel(c tele.Context) error {
	h.ResetState(c.Sender().ID)
	return h.reply(c, msgMainMenu, mainMenuMarkup())
}
