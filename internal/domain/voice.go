package domain

// Voice describes a speech synthesis voice offered by the environment.
// Lang is a BCP-47 tag such as "zh-CN" or "en-US".
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// VoicePreference holds the user's pinned voice and the output switch.
type VoicePreference struct {
	VoiceName string
	Enabled   bool
}

// DefaultVoicePreference returns the preference used when nothing is stored.
func DefaultVoicePreference() VoicePreference {
	return VoicePreference{Enabled: true}
}
