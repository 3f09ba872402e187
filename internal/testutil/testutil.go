package testutil

import (
	"pinyinmatch/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestWords creates n distinct word pairs
func NewTestWords(n int) []domain.WordPair {
	all := []domain.WordPair{
		{Pinyin: "nǐ hǎo", English: "hello"},
		{Pinyin: "xièxie", English: "thank you"},
		{Pinyin: "zàijiàn", English: "goodbye"},
		{Pinyin: "chá", English: "tea"},
		{Pinyin: "shuǐ", English: "water"},
	}
	if n > len(all) {
		n = len(all)
	}
	return append([]domain.WordPair(nil), all[:n]...)
}

// NewTestVoices returns a small mixed-language voice catalog
func NewTestVoices() []domain.Voice {
	return []domain.Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Samantha", Lang: "en-US"},
		{Name: "Tingting", Lang: "zh-CN"},
	}
}

// silentFrame is one MPEG-1 Layer III frame: 128 kbps, 44.1 kHz, mono,
// all-zero side info and main data.
func silentFrame() []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0xC4})
	return frame
}

// SilentMP3 returns a decodable MP3 payload of n silent frames
func SilentMP3(n int) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		out = append(out, silentFrame()...)
	}
	return out
}
