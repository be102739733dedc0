package translate

import "context"

// Options configures a single translation call
type Options struct {
	SourceLang string `json:"source_lang"` // "auto" to let the engine detect
	TargetLang string `json:"target_lang"`
}

// Translator is the common interface for all translation engines
type Translator interface {
	// Translate returns text rendered in the target language
	Translate(ctx context.Context, text string, opts Options) (string, error)
	// Name returns the engine name
	Name() string
}
