package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mgpai22/ytscribe/internal/audio"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
	probe   func(ctx context.Context, path string) (time.Duration, error)
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: use --api-key flag or set GEMINI_API_KEY environment variable")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
		probe:   audio.GetDuration,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if err := checkAudio(audioPath); err != nil {
		return nil, err
	}

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, audioPath, &genai.UploadFileConfig{
		MIMEType:    mimeTypeFor(audioPath),
		DisplayName: filepath.Base(audioPath),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload audio file: %w", ErrTranscription, err)
	}

	defer func() {
		_, _ = t.client.Files.Delete(ctx, uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", ErrTranscription, t.model, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	result := &Result{Text: text}
	probeDuration(ctx, t.probe, audioPath, result)
	return result, nil
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Transcribe this audio verbatim in the language it is spoken. ")
	sb.WriteString("Return only the transcript as plain text: no timestamps, speaker labels, headings, or markdown. ")

	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
	}

	return strings.TrimSpace(sb.String())
}

// concatenates the text parts of the response
func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		// only the first candidate carrying content is used
		if sb.Len() > 0 {
			break
		}
	}

	text := cleanTranscript(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return text, nil
}

var codeFenceRe = regexp.MustCompile("```[a-zA-Z]*\\s*")

// removes markdown fences the model sometimes wraps around plain text
func cleanTranscript(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a", ".aac":
		return "audio/aac"
	case ".ogg", ".opus":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
