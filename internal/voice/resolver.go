// Package voice picks a local synthesis voice and prepares the text it speaks.
package voice

import (
	"strings"

	"pinyinmatch/internal/domain"
)

const (
	// DefaultLang is used when no catalog voice can speak the text.
	DefaultLang = "en-US"

	// NoChineseVoiceWarning is surfaced when Chinese text is read by a non-Chinese voice.
	NoChineseVoiceWarning = "No Chinese voice found. Install a Chinese voice for accurate pronunciation."
)

// Resolution is the decision of which voice speaks what.
// Voice is nil when speech falls back to the default locale.
type Resolution struct {
	Voice   *domain.Voice
	Lang    string
	Text    string
	Warning string
}

// PickVoice returns the best voice whose language tag starts with prefix.
// An empty prefix considers every voice. Female-hinted, higher-quality voices
// rank first, then female-hinted ones, then input order.
func PickVoice(voices []domain.Voice, prefix string) (domain.Voice, bool) {
	candidates := voices
	if prefix != "" {
		candidates = make([]domain.Voice, 0, len(voices))
		for _, v := range voices {
			if hasLangPrefix(v.Lang, prefix) {
				candidates = append(candidates, v)
			}
		}
	}
	if len(candidates) == 0 {
		return domain.Voice{}, false
	}

	for _, v := range candidates {
		if isFemale(v.Name) && isQuality(v.Name) {
			return v, true
		}
	}
	for _, v := range candidates {
		if isFemale(v.Name) {
			return v, true
		}
	}
	return candidates[0], true
}

// ResolveForSpeech decides how text is spoken locally. A pinned voice present
// in the catalog is used as-is; otherwise a Chinese voice, then an English one
// reading a transliteration, then the default locale.
func ResolveForSpeech(pinned string, voices []domain.Voice, text string) Resolution {
	if pinned != "" {
		for _, v := range voices {
			if v.Name != pinned {
				continue
			}
			v := v
			res := Resolution{Voice: &v, Lang: v.Lang, Text: text}
			if !IsChinese(v.Lang) {
				res.Text = Transliterate(text)
			}
			return res
		}
	}

	if v, ok := PickVoice(voices, "zh"); ok {
		return Resolution{Voice: &v, Lang: v.Lang, Text: text}
	}

	if v, ok := PickVoice(voices, "en"); ok {
		return Resolution{
			Voice:   &v,
			Lang:    v.Lang,
			Text:    Transliterate(text),
			Warning: NoChineseVoiceWarning,
		}
	}

	return Resolution{
		Lang:    DefaultLang,
		Text:    Transliterate(text),
		Warning: NoChineseVoiceWarning,
	}
}

// IsChinese reports whether a BCP-47 tag is a Chinese locale.
func IsChinese(lang string) bool {
	return hasLangPrefix(lang, "zh")
}

func hasLangPrefix(lang, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(lang), strings.ToLower(prefix))
}

func isFemale(name string) bool {
	return containsAny(strings.ToLower(name), femaleTokens)
}

func isQuality(name string) bool {
	return containsAny(strings.ToLower(name), qualityTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
