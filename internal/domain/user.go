package domain

// UserState represents user's current interaction state
type UserState string

const (
	StateIdle           UserState = "idle"
	StateWaitingPinyin  UserState = "waiting_pinyin"
	StateWaitingEnglish UserState = "waiting_english"
	StateWaitingBulk    UserState = "waiting_bulk"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State         UserState
	PendingPinyin string
}
