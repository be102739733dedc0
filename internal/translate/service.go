package translate

import (
	"context"
	"fmt"
	"log"
)

// KeyResolver returns the current DeepL API key, or "" when none is set.
// The key is resolved on every call so admins can rotate it at runtime
// through the settings API without a restart.
type KeyResolver func() string

// Service manages translation engines and routes each call to the preferred
// one. It implements Translator itself so callers need not know which engines
// are configured.
type Service struct {
	engines  map[string]Translator
	deeplKey KeyResolver
	override string
}

// NewService creates a translation service. The Google engine needs no key
// and is the fallback; DeepL is preferred whenever the resolver yields a key.
func NewService(deeplKey KeyResolver) *Service {
	if deeplKey == nil {
		deeplKey = func() string { return "" }
	}
	s := &Service{
		engines:  make(map[string]Translator),
		deeplKey: deeplKey,
	}

	s.engines["google"] = NewGoogleTranslator()
	log.Printf("[translate] registered Google engine")

	s.engines["deepl"] = NewDeepLTranslator(deeplKey)
	log.Printf("[translate] registered DeepL engine (used when an API key is configured)")

	return s
}

// RegisterEngine adds or replaces an engine and pins it as preferred.
func (s *Service) RegisterEngine(name string, engine Translator) {
	s.engines[name] = engine
	s.override = name
	log.Printf("[translate] registered %s engine (preferred)", name)
}

// Name returns the engine that would serve the next call.
func (s *Service) Name() string {
	return s.preferred()
}

func (s *Service) preferred() string {
	if s.override != "" {
		return s.override
	}
	if s.deeplKey() != "" {
		return "deepl"
	}
	return "google"
}

func (s *Service) Translate(ctx context.Context, text string, opts Options) (string, error) {
	name := s.preferred()
	engine, ok := s.engines[name]
	if !ok {
		return "", fmt.Errorf("no translation engine configured")
	}
	return engine.Translate(ctx, text, opts)
}
