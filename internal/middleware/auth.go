package middleware

import (
	"context"
	"strings"

	"pinyinmatch/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError          = "Something went wrong. Please try again later."
	msgPasswordPrompt = "Hi! Pinyin Match is private. Send the password to continue:"
)

// AuthMiddleware creates authentication middleware. Unauthorized users can
// only use /start and send plain text, which is taken as a password attempt.
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			// Check authorization
			authorized, err := authService.IsAuthorized(context.Background(), sender.ID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send(msgError)
			}

			if authorized || isPasswordAttempt(c.Text(), c.Callback() != nil || c.Message() == nil) {
				return next(c)
			}

			logger.Info("Rejected unauthorized update", zap.Int64("user_id", sender.ID))
			if c.Callback() != nil {
				_ = c.Respond(&tele.CallbackResponse{Text: msgPasswordPrompt, ShowAlert: true})
				return nil
			}
			return c.Send(msgPasswordPrompt)
		}
	}
}

// isPasswordAttempt reports whether an unauthorized update may pass: /start
// or a plain text message
func isPasswordAttempt(text string, notMessage bool) bool {
	if notMessage {
		return false
	}
	text = strings.TrimSpace(text)
	return text == "/start" || (text != "" && !strings.HasPrefix(text, "/"))
}
