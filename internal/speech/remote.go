package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteError is a non-success answer from the speech endpoint.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote speech: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote speech: status %d: %s", e.StatusCode, e.Message)
}

// RemoteSynthesizer fetches MP3 audio for text.
type RemoteSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// RemoteClient calls POST <origin>/api/speak.
type RemoteClient struct {
	endpoint string
	client   *http.Client
}

// NewRemoteClient creates a client for the speech endpoint at origin.
func NewRemoteClient(origin string, client *http.Client) *RemoteClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteClient{
		endpoint: strings.TrimSuffix(origin, "/") + "/api/speak",
		client:   client,
	}
}

// Synthesize returns the MP3 bytes for text.
func (c *RemoteClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &payload)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyClip
	}
	return audio, nil
}
