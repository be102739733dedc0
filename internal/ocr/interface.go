package ocr

import "context"

// Engine is the common interface for OCR providers. Input is an encoded
// image (PNG or JPEG); output is the recognized plain text.
type Engine interface {
	// Recognize extracts text from an encoded image
	Recognize(ctx context.Context, image []byte) (string, error)
	// Name returns the engine name
	Name() string
}
