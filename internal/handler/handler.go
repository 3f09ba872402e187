package handler

import (
	"context"
	"sync"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError          = "Something went wrong. Please try again later."
	msgPasswordPrompt = "Hi! Pinyin Match is private. Send the password to continue:"
	msgMainMenu       = "🏠 Main menu\n\nChoose an action:"
)

// Handler manages all bot interactions
type Handler struct {
	bot         *tele.Bot
	authService *service.AuthService
	sessions    *service.Sessions
	logger      *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	sessions *service.Sessions,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:         bot,
		authService: authService,
		sessions:    sessions,
		logger:      logger,
		states:      make(map[int64]*domain.StateData),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/play", h.handleStartRound)
	h.bot.Handle("/words", h.handleListWords)
	h.bot.Handle("/voice", h.handleVoiceMenu)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnAddPair, h.handleAddPair)
	h.bot.Handle(&btnBulkAdd, h.handleBulkAdd)
	h.bot.Handle(&btnListWords, h.handleListWords)
	h.bot.Handle(&btnClearWords, h.handleClearWords)
	h.bot.Handle(&btnClearConfirm, h.handleClearConfirm)
	h.bot.Handle(&btnStartRound, h.handleStartRound)
	h.bot.Handle(&btnVoiceMenu, h.handleVoiceMenu)
	h.bot.Handle(&btnVoiceAuto, h.handleVoiceAuto)
	h.bot.Handle(&btnVoiceToggle, h.handleVoiceToggle)
	h.bot.Handle(&btnStopAudio, h.handleStopAudio)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

// session returns the user's locked session. The caller must Unlock it.
func (h *Handler) session(userID int64) (*service.Session, error) {
	sess, err := h.sessions.Get(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to open session", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	sess.Lock()
	return sess, nil
}

// reply edits the callback's message or sends a new one for commands
func (h *Handler) reply(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() != nil {
		if err := c.Edit(text, markup); err != nil {
			if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
				return nil // Message was already modified, just acknowledged
			}
			return c.Send(text, markup)
		}
		return c.Respond()
	}
	return c.Send(text, markup)
}

// Inline keyboard buttons
var (
	btnAddPair = tele.Btn{
		Unique: "add_pair",
		Text:   "➕ Add pair",
	}
	btnBulkAdd = tele.Btn{
		Unique: "bulk_add",
		Text:   "📋 Bulk add",
	}
	btnListWords = tele.Btn{
		Unique: "list_words",
		Text:   "📚 My words",
	}
	btnClearWords = tele.Btn{
		Unique: "clear_words",
		Text:   "🗑 Clear all",
	}
	btnClearConfirm = tele.Btn{
		Unique: "clear_confirm",
		Text:   "⚠️ Yes, delete everything",
	}
	btnStartRound = tele.Btn{
		Unique: "start_round",
		Text:   "▶️ Play",
	}
	btnVoiceMenu = tele.Btn{
		Unique: "voice_menu",
		Text:   "🔊 Voice",
	}
	btnVoiceAuto = tele.Btn{
		Unique: "voice_auto",
		Text:   "🤖 Automatic voice",
	}
	btnVoiceToggle = tele.Btn{
		Unique: "voice_toggle",
		Text:   "🔇 Mute / unmute",
	}
	btnStopAudio = tele.Btn{
		Unique: "stop_audio",
		Text:   "⏹ Stop audio",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Cancel",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnStartRound),
		menu.Row(btnAddPair, btnBulkAdd),
		menu.Row(btnListWords, btnVoiceMenu),
	)
	return menu
}

// cancelMarkup returns a keyboard with a single cancel button
func cancelMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCancel))
	return menu
}
