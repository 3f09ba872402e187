package domain

import "errors"

var (
	// ErrInsufficientWords is returned when a round is started with fewer than two pairs.
	ErrInsufficientWords = errors.New("Add at least 2 word pairs to start")

	// ErrIndexOutOfRange is returned when removing a pair at an invalid position.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyPair is returned when a pair has an empty pinyin or English side.
	ErrEmptyPair = errors.New("pinyin and english cannot be empty")

	// ErrNoVoice is returned when no local voice can be selected.
	ErrNoVoice = errors.New("no voice available")
)
