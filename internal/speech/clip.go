package speech

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyClip is returned for an audio payload with no bytes.
var ErrEmptyClip = errors.New("empty audio payload")

// Clip is a playable audio payload.
type Clip struct {
	Data     []byte
	MIME     string
	FileName string
	Title    string
	Duration time.Duration
}

// Info describes a decoded MP3 payload.
type Info struct {
	SampleRate int
	Duration   time.Duration
}

// MP3Clip wraps an MP3 payload. Empty or undecodable payloads are rejected.
func MP3Clip(data []byte, title string) (Clip, error) {
	info, err := ClipInfo(data)
	if err != nil {
		return Clip{}, err
	}
	return Clip{
		Data:     data,
		MIME:     "audio/mpeg",
		FileName: "speech.mp3",
		Title:    title,
		Duration: info.Duration,
	}, nil
}

// ClipInfo decodes the frame headers of an MP3 payload to measure it.
func ClipInfo(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmptyClip
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	rate := dec.SampleRate()
	if rate <= 0 || dec.Length() <= 0 {
		return Info{}, fmt.Errorf("mp3 has no audio frames")
	}
	// decoded stream is 16-bit stereo: 4 bytes per sample frame
	frames := dec.Length() / 4
	return Info{
		SampleRate: rate,
		Duration:   time.Duration(frames) * time.Second / time.Duration(rate),
	}, nil
}
