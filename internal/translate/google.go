package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleAPIURL = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator translates text using the public Google Translate web
// endpoint. No API key is required, which makes it the default engine.
type GoogleTranslator struct {
	httpClient *http.Client
}

func NewGoogleTranslator() *GoogleTranslator {
	return &GoogleTranslator{
		httpClient: &http.Client{
			Timeout: 1 * time.Minute,
		},
	}
}

func (g *GoogleTranslator) Name() string {
	return "google"
}

func (g *GoogleTranslator) Translate(ctx context.Context, text string, opts Options) (string, error) {
	source := opts.SourceLang
	if source == "" {
		source = "auto"
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", opts.TargetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", googleAPIURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("google translate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate error (status %d): %s", resp.StatusCode, string(body))
	}

	// Response shape: [[["<translated>","<original>",...], ...], ...]
	// Only the first element of each sentence chunk matters here.
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var sentences [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &sentences); err != nil {
		return "", fmt.Errorf("parse sentences: %w", err)
	}

	var sb strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		var chunk string
		if err := json.Unmarshal(s[0], &chunk); err != nil {
			continue
		}
		sb.WriteString(chunk)
	}

	result := sb.String()
	if result == "" {
		return "", fmt.Errorf("no translation in response")
	}
	return result, nil
}
