package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command and the main menu button
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Check if authorized
	authorized, err := h.authService.IsAuthorized(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	h.ResetState(userID)
	if !authorized {
		// Request password
		return c.Send(msgPasswordPrompt)
	}

	// Show main menu
	return h.reply(c, msgMainMenu, mainMenuMarkup())
}
