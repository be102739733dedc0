package tts

import "context"

// Audio is a synthesized voice clip in an encoded, playable format.
type Audio struct {
	Data   []byte
	Format string // e.g. "mp3"
}

// Synthesizer is the common interface for all speech engines
type Synthesizer interface {
	// Synthesize converts text to spoken audio
	Synthesize(ctx context.Context, text string) (*Audio, error)
	// Name returns the engine name
	Name() string
}
