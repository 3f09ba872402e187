package speech

import (
	"context"

	"pinyinmatch/internal/domain"
)

// Utterance is a request to speak text with a local voice.
// Voice is nil when only a language is known.
type Utterance struct {
	Text   string
	Voice  *domain.Voice
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// LocalSynthesizer is the on-device speech engine.
type LocalSynthesizer interface {
	// Voices returns the voice catalog, waiting for it to load on first use.
	Voices(ctx context.Context) ([]domain.Voice, error)
	// Enqueue starts speaking u.
	Enqueue(ctx context.Context, u Utterance) error
	// Cancel stops any utterance in flight.
	Cancel()
}
