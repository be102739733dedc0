package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	_ "image/jpeg"
	_ "image/png"

	"github.com/mediexplain/backend/internal/ocr"
	"github.com/mediexplain/backend/internal/translate"
	"github.com/mediexplain/backend/internal/tts"
)

// ErrBadImage marks an upload that could not be decoded. It is the only hard
// failure the pipeline produces; every engine failure degrades instead.
var ErrBadImage = errors.New("invalid image")

// Request is one uploaded prescription image plus the requested target language.
type Request struct {
	Image      []byte
	FileName   string
	TargetLang string
}

// Result holds the three conversion artifacts. Any of them may be empty when
// the stage that produces it was unavailable; SimplifiedText equals
// ExtractedText when translation failed. Audio is transient and never
// persisted to history.
type Result struct {
	ExtractedText  string
	SimplifiedText string
	Audio          []byte
}

// Service runs the extract → simplify → synthesize pipeline. Each stage is
// attempted once and degrades on failure so a partially successful
// interpretation still reaches the user.
type Service struct {
	ocrEngine   ocr.Engine
	translator  translate.Translator
	synthesizer tts.Synthesizer
}

func NewService(ocrEngine ocr.Engine, translator translate.Translator, synthesizer tts.Synthesizer) *Service {
	return &Service{
		ocrEngine:   ocrEngine,
		translator:  translator,
		synthesizer: synthesizer,
	}
}

// Process converts one uploaded image into its three artifacts. It returns an
// error only for an undecodable image or a cancelled context; engine failures
// are logged and folded into the result.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	_, format, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	log.Printf("[pipeline] processing %s (%s, %d bytes)", req.FileName, format, len(req.Image))

	res := &Result{}
	res.ExtractedText = s.extract(ctx, req.Image)
	res.SimplifiedText = s.simplify(ctx, res.ExtractedText, req.TargetLang)
	res.Audio = s.synthesize(ctx, res.SimplifiedText)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) extract(ctx context.Context, img []byte) string {
	if s.ocrEngine == nil {
		log.Printf("[pipeline] no OCR engine configured, skipping extraction")
		return ""
	}
	text, err := s.ocrEngine.Recognize(ctx, img)
	if err != nil {
		log.Printf("[pipeline] OCR failed (%s): %v", s.ocrEngine.Name(), err)
		return ""
	}
	return text
}

func (s *Service) simplify(ctx context.Context, text, targetLang string) string {
	if text == "" {
		return ""
	}
	target := translate.NormalizeLang(targetLang)
	if s.translator == nil {
		log.Printf("[pipeline] no translation engine configured, keeping original text")
		return text
	}
	simplified, err := s.translator.Translate(ctx, text, translate.Options{
		SourceLang: "auto",
		TargetLang: target,
	})
	if err != nil {
		// Untranslated text is still useful downstream.
		log.Printf("[pipeline] translation failed (%s, target=%s): %v", s.translator.Name(), target, err)
		return text
	}
	return simplified
}

func (s *Service) synthesize(ctx context.Context, text string) []byte {
	if s.synthesizer == nil {
		log.Printf("[pipeline] no speech engine configured, skipping audio")
		return nil
	}
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Printf("[pipeline] speech synthesis failed (%s): %v", s.synthesizer.Name(), err)
		return nil
	}
	return audio.Data
}
