package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/ytscribe/internal/audio"
)

// implements Transcriber using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options

	// re-encodes audio so uploads stay under the API size limit
	compress func(ctx context.Context, in, out string) error
	probe    func(ctx context.Context, path string) (time.Duration, error)
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: use --api-key flag or set OPENAI_API_KEY environment variable")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:   client,
		model:    model,
		options:  opts,
		compress: compressForUpload,
		probe:    audio.GetDuration,
	}, nil
}

func compressForUpload(ctx context.Context, in, out string) error {
	return audio.CompressAudio(ctx, in, out, audio.DefaultCompressionOptions())
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	if err := checkAudio(audioPath); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "ytscribe-openai-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp directory: %w", ErrTranscription, err)
	}
	defer os.RemoveAll(tempDir)

	uploadPath := filepath.Join(tempDir, "upload.mp3")
	if err := t.compress(ctx, audioPath, uploadPath); err != nil {
		return nil, fmt.Errorf("%w: failed to prepare audio: %w", ErrTranscription, err)
	}

	file, err := os.Open(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open audio file: %w", ErrTranscription, err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", ErrTranscription, t.model, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty transcript from %s", ErrTranscription, t.model)
	}

	result := &Result{Text: text}
	probeDuration(ctx, t.probe, audioPath, result)
	return result, nil
}
