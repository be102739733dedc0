package tts

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

// VoiceResolver returns the voice to synthesize with. It is consulted per
// call so an admin changing the voice setting takes effect without a restart.
type VoiceResolver func() string

// SpeechClient talks to an OpenAI-compatible speech server
// (POST {base}/v1/audio/speech). The speech rate is fixed at construction
// and audio is produced at full volume; no attenuation is applied.
type SpeechClient struct {
	baseURL    string
	voice      VoiceResolver
	speed      float64
	httpClient *http.Client
}

// NewSpeechClient creates a client for a speech synthesis server
func NewSpeechClient(baseURL string, voice VoiceResolver, speed float64) *SpeechClient {
	if speed <= 0 {
		speed = 1.0
	}
	if voice == nil {
		voice = func() string { return "" }
	}
	return &SpeechClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		voice:   voice,
		speed:   speed,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // long texts take a while to render
		},
	}
}

func (c *SpeechClient) Name() string {
	return "speech-server"
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize sends text to the speech server and returns MP3 audio
func (c *SpeechClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          c.voice(),
		Speed:          c.speed,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/v1/audio/speech"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("speech server request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech server error (status %d): %s", resp.StatusCode, string(body))
	}

	return &Audio{Data: body, Format: "mp3"}, nil
}
