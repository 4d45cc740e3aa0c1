// Package pipeline runs one video through metadata lookup, audio download,
// transcription and transcript storage, strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/mgpai22/ytscribe/internal/config"
	"github.com/mgpai22/ytscribe/internal/filename"
	"github.com/mgpai22/ytscribe/internal/logging"
	"github.com/mgpai22/ytscribe/internal/transcribe"
	"github.com/mgpai22/ytscribe/internal/transcript"
	"github.com/mgpai22/ytscribe/internal/youtube"
)

// characters of the transcript echoed to the operator
const previewLength = 1000

type MetadataFetcher interface {
	FetchTitle(ctx context.Context, url string) (string, error)
}

type AudioDownloader interface {
	Download(ctx context.Context, url, outputDir, safeTitle string) (string, error)
}

// loads the speech model; called after the audio is on disk
type TranscriberLoader func(ctx context.Context) (transcribe.Transcriber, error)

type TranscriptSaver interface {
	Save(title, text string) (*transcript.Saved, error)
}

type Deps struct {
	Fetcher         MetadataFetcher
	Downloader      AudioDownloader
	LoadTranscriber TranscriberLoader
	Saver           TranscriptSaver
	Out             io.Writer // progress lines, nil discards
	Log             *logging.Logger
}

type Pipeline struct {
	cfg  config.Config
	deps Deps
}

func New(cfg config.Config, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: metadata fetcher is required")
	case deps.Downloader == nil:
		return nil, errors.New("pipeline: audio downloader is required")
	case deps.LoadTranscriber == nil:
		return nil, errors.New("pipeline: transcriber loader is required")
	case deps.Saver == nil:
		return nil, errors.New("pipeline: transcript saver is required")
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// what a completed run produced
type Outcome struct {
	Title          string
	SafeTitle      string
	AudioPath      string
	Text           string
	Language       string
	Duration       time.Duration
	TranscriptPath string
	OpenWarning    *transcript.OpenWarning
}

// Run executes every stage once. A failure before the transcript is saved
// aborts the run and no transcript is written; a downloaded audio file may
// remain on disk.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	started := time.Now()
	log := p.deps.Log.With("url", p.cfg.URL)
	out := &Outcome{}

	p.progress("Fetching video metadata...")
	title, err := p.deps.Fetcher.FetchTitle(ctx, p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", classify(err, youtube.ErrSource))
	}
	out.Title = title
	out.SafeTitle = filename.Sanitize(title)
	log.Infow("Resolved video title", "title", title, "safe_title", out.SafeTitle)
	p.progress("Title: %s", title)

	p.progress("Downloading audio...")
	audioPath, err := p.deps.Downloader.Download(ctx, p.cfg.URL, p.cfg.OutputDir, out.SafeTitle)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", classify(err, youtube.ErrSource, youtube.ErrTranscode))
	}
	out.AudioPath = audioPath
	p.progress("Audio downloaded: %s", audioPath)

	p.progress("Loading %s model...", p.cfg.ModelTier)
	transcriber, err := p.deps.LoadTranscriber(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", classify(err, transcribe.ErrTranscription))
	}

	p.progress("Transcribing...")
	transcribeStart := time.Now()
	result, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", audioPath, classify(err, transcribe.ErrTranscription))
	}
	out.Text = result.Text
	out.Language = result.Language
	out.Duration = result.Duration
	log.Infow("Transcription complete",
		"chars", utf8.RuneCountInString(result.Text),
		"language", result.Language,
		"audio_duration", result.Duration.String(),
		"elapsed", time.Since(transcribeStart).Round(time.Millisecond).String(),
	)
	p.progress("First %d chars of transcription:\n%s", previewLength, preview(result.Text, previewLength))

	saved, err := p.deps.Saver.Save(title, result.Text)
	if err != nil {
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	out.TranscriptPath = saved.Path
	out.OpenWarning = saved.Warning

	log.Infow("Run finished",
		"transcript", saved.Path,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	return out, nil
}

func (p *Pipeline) progress(format string, args ...interface{}) {
	fmt.Fprintf(p.deps.Out, format+"\n", args...)
}

// keeps err if it already carries one of kinds, otherwise tags it with the first
func classify(err error, kinds ...error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", kinds[0], err)
}

// first n runes of s
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
