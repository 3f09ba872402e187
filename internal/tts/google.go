// Package tts calls the Google Cloud Text-to-Speech REST API.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultEndpoint is the Google synthesize endpoint
const DefaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

var (
	// ErrMissingCredential is returned before any call when no API key is configured.
	ErrMissingCredential = errors.New("GOOGLE_TTS_API_KEY not set")

	// ErrNoAudio is returned when the API answers without audio content.
	ErrNoAudio = errors.New("Google TTS: no audioContent")
)

// Synthesizer turns text into MP3 audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// VoiceConfig selects the voice and audio settings of a request
type VoiceConfig struct {
	LanguageCode  string
	Name          string
	AudioEncoding string
	SpeakingRate  float64
	Pitch         float64
}

// DefaultVoice is a slowed-down Mandarin WaveNet voice producing MP3
func DefaultVoice() VoiceConfig {
	return VoiceConfig{
		LanguageCode:  "zh-CN",
		Name:          "zh-CN-Wavenet-A",
		AudioEncoding: "MP3",
		SpeakingRate:  0.75,
		Pitch:         0,
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		Pitch         float64 `json:"pitch"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// GoogleClient calls the synthesize endpoint behind a circuit breaker
type GoogleClient struct {
	apiKey   string
	endpoint string
	voice    VoiceConfig
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// Option configures a GoogleClient
type Option func(*GoogleClient)

// WithEndpoint overrides the API endpoint
func WithEndpoint(endpoint string) Option {
	return func(c *GoogleClient) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *GoogleClient) { c.client = client }
}

// WithVoice overrides the voice configuration
func WithVoice(v VoiceConfig) Option {
	return func(c *GoogleClient) { c.voice = v }
}

// NewGoogleClient creates a client for apiKey. The breaker opens after five
// consecutive upstream failures and probes again after 30 seconds.
func NewGoogleClient(apiKey string, logger *zap.Logger, opts ...Option) *GoogleClient {
	c := &GoogleClient{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		voice:    DefaultVoice(),
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-tts",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Enabled reports whether an API key is configured
func (c *GoogleClient) Enabled() bool {
	return c.apiKey != ""
}

// Synthesize returns MP3 audio for text
func (c *GoogleClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("Google TTS unavailable: %w", err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *GoogleClient) call(ctx context.Context, text string) ([]byte, error) {
	var body synthesizeRequest
	body.Input.Text = text
	body.Voice.LanguageCode = c.voice.LanguageCode
	body.Voice.Name = c.voice.Name
	body.AudioConfig.AudioEncoding = c.voice.AudioEncoding
	body.AudioConfig.SpeakingRate = c.voice.SpeakingRate
	body.AudioConfig.Pitch = c.voice.Pitch

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build Google TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Google TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Google TTS: %d %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var data synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Google TTS response: %w", err)
	}
	if data.AudioContent == "" {
		return nil, ErrNoAudio
	}

	audio, err := base64.StdEncoding.DecodeString(data.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Google TTS audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}
	return audio, nil
}
