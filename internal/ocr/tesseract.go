package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// LangResolver returns the current Tesseract trained-data spec, such as
// "eng" or "eng+hin". It is consulted per call so the setting can change at
// runtime; "" means the install default.
type LangResolver func() string

// TesseractEngine extracts text with a local Tesseract install via gosseract.
// A fresh client is created per call; gosseract clients are not safe for
// concurrent reuse.
type TesseractEngine struct {
	language      LangResolver
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(language LangResolver) *TesseractEngine {
	if language == nil {
		language = func() string { return "" }
	}
	return &TesseractEngine{
		language:      language,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if lang := e.language(); lang != "" {
		if err := c.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
