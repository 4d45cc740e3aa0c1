package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mgpai22/ytscribe/internal/audio"
)

// ErrTranscription wraps every model load and inference failure.
var ErrTranscription = errors.New("transcription error")

// transcription result
type Result struct {
	Text     string
	Language string // as detected by the model, empty when unknown
	Duration time.Duration // length of the transcribed audio, zero when unknown
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderWhisper Provider = "whisper"
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderWhisper, ProviderOpenAI, ProviderGemini:
		return p, nil
	case "":
		return ProviderWhisper, nil
	default:
		return "", fmt.Errorf("unsupported provider %q: use whisper, openai, or gemini", s)
	}
}

// Whisper model size, trading speed for accuracy
type ModelTier string

const (
	TierTiny   ModelTier = "tiny"
	TierBase   ModelTier = "base"
	TierSmall  ModelTier = "small"
	TierMedium ModelTier = "medium"
	TierLarge  ModelTier = "large"
	TierTurbo  ModelTier = "turbo"

	DefaultModelTier = TierBase
)

var modelTiers = []ModelTier{TierTiny, TierBase, TierSmall, TierMedium, TierLarge, TierTurbo}

func ModelTiers() []ModelTier {
	return append([]ModelTier(nil), modelTiers...)
}

func ParseModelTier(s string) (ModelTier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultModelTier, nil
	}
	for _, tier := range modelTiers {
		if string(tier) == s {
			return tier, nil
		}
	}
	return "", fmt.Errorf("unknown model tier %q: use one of %s", s, joinTiers())
}

func joinTiers() string {
	tiers := ModelTiers()
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = string(tier)
	}
	return strings.Join(names, ", ")
}

// rejects missing files and paths without a known audio extension
func checkAudio(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: audio file not found: %s", ErrTranscription, path)
	}
	if !audio.IsAudioFile(path) {
		return fmt.Errorf("%w: not an audio file: %s", ErrTranscription, path)
	}
	return nil
}

// fills Result.Duration from ffprobe; hosted APIs do not report it
func probeDuration(ctx context.Context, probe func(context.Context, string) (time.Duration, error), path string, result *Result) {
	if probe == nil || result.Duration > 0 {
		return
	}
	if d, err := probe(ctx, path); err == nil {
		result.Duration = d
	}
}

// transcription options
type Options struct {
	Tier        ModelTier // local whisper model size
	Model       string    // hosted model name, provider default when empty
	WhisperPath string    // local whisper executable, PATH lookup when empty
	Prompt      string    // optional vocabulary hint, whisper --initial_prompt or the API prompt
}

// creates transcriber based on provider; for the local backend this is also
// where the model executable is resolved
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	var (
		t   Transcriber
		err error
	)
	switch provider {
	case ProviderWhisper:
		t, err = NewWhisperTranscriber(opts)
	case ProviderOpenAI:
		t, err = NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderGemini:
		t, err = NewGeminiTranscriber(ctx, apiKey, opts)
	default:
		err = fmt.Errorf("unsupported provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s model: %w", ErrTranscription, provider, err)
	}
	return t, nil
}
