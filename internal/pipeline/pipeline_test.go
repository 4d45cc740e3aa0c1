package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/ytscribe/internal/config"
	"github.com/mgpai22/ytscribe/internal/transcribe"
	"github.com/mgpai22/ytscribe/internal/transcript"
	"github.com/mgpai22/ytscribe/internal/viewer"
	"github.com/mgpai22/ytscribe/internal/youtube"
)

type fakeFetcher struct {
	title string
	err   error
	calls int
}

func (f *fakeFetcher) FetchTitle(context.Context, string) (string, error) {
	f.calls++
	return f.title, f.err
}

type fakeDownloader struct {
	path      string
	err       error
	gotPrefix string
	gotTitle  string
	calls     int
}

func (d *fakeDownloader) Download(_ context.Context, _, outputDir, safeTitle string) (string, error) {
	d.calls++
	d.gotPrefix = outputDir
	d.gotTitle = safeTitle
	return d.path, d.err
}

type fakeTranscriber struct {
	text    string
	err     error
	gotPath string
}

func (t *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (*transcribe.Result, error) {
	t.gotPath = audioPath
	if t.err != nil {
		return nil, t.err
	}
	return &transcribe.Result{Text: t.text, Language: "en", Duration: 42 * time.Second}, nil
}

type harness struct {
	fetcher     *fakeFetcher
	downloader  *fakeDownloader
	transcriber *fakeTranscriber
	loadErr     error
	loads       int
	dir         string
	out         bytes.Buffer
	opened      []string
	openErr     error
}

func newHarness(t *testing.T) *harness {
	return &harness{
		fetcher:     &fakeFetcher{title: "Test/Video"},
		downloader:  &fakeDownloader{path: "audio_Test_Video.mp3"},
		transcriber: &fakeTranscriber{text: "hello world"},
		dir:         t.TempDir(),
	}
}

func (h *harness) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.URL = "https://www.youtube.com/watch?v=test"

	p, err := New(cfg, Deps{
		Fetcher:    h.fetcher,
		Downloader: h.downloader,
		LoadTranscriber: func(context.Context) (transcribe.Transcriber, error) {
			h.loads++
			if h.loadErr != nil {
				return nil, h.loadErr
			}
			return h.transcriber, nil
		},
		Saver: &transcript.Writer{
			Dir: h.dir,
			Opener: viewer.Func(func(path string) error {
				h.opened = append(h.opened, path)
				return h.openErr
			}),
			Out: &h.out,
		},
		Out: &h.out,
	})
	require.NoError(t, err)
	return p
}

func (h *harness) transcriptFiles(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.dir, "transcription_*.txt"))
	require.NoError(t, err)
	return matches
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.pipeline(t).Run(context.Background())
	require.NoError(t, err)

	wantPath := filepath.Join(h.dir, "transcription_Test_Video.txt")
	assert.Equal(t, wantPath, outcome.TranscriptPath)
	assert.Equal(t, "Test/Video", outcome.Title)
	assert.Equal(t, "Test_Video", outcome.SafeTitle)
	assert.Equal(t, "audio_Test_Video.mp3", outcome.AudioPath)
	assert.Equal(t, 42*time.Second, outcome.Duration)
	assert.Nil(t, outcome.OpenWarning)

	got, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	assert.Equal(t, "audio", h.downloader.gotPrefix)
	assert.Equal(t, "Test_Video", h.downloader.gotTitle)
	assert.Equal(t, "audio_Test_Video.mp3", h.transcriber.gotPath)
	assert.Equal(t, []string{wantPath}, h.opened)

	progress := h.out.String()
	for _, line := range []string{
		"Fetching video metadata...",
		"Audio downloaded: audio_Test_Video.mp3",
		"Loading base model...",
		"hello world",
		"Transcription saved to: " + wantPath,
	} {
		assert.Contains(t, progress, line)
	}
}

func TestRunEmptyTitle(t *testing.T) {
	h := newHarness(t)
	h.fetcher.title = ""
	h.downloader.path = "audio_.mp3"

	outcome, err := h.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "transcription_.txt", filepath.Base(outcome.TranscriptPath))
	assert.Equal(t, "", h.downloader.gotTitle)
}

func TestRunOpenFailureStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.openErr = errors.New("xdg-open: no display")

	outcome, err := h.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, outcome.OpenWarning)
	assert.FileExists(t, outcome.TranscriptPath)
}

func TestRunFailuresAbortWithoutTranscript(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *harness)
		wantKind error
	}{
		{
			name:     "metadata unreachable",
			setup:    func(h *harness) { h.fetcher.err = errors.New("dial tcp: no route to host") },
			wantKind: youtube.ErrSource,
		},
		{
			name: "download rejected",
			setup: func(h *harness) {
				h.downloader.err = errors.New("HTTP Error 403")
			},
			wantKind: youtube.ErrSource,
		},
		{
			name: "transcoding failed",
			setup: func(h *harness) {
				h.downloader.err = fmt.Errorf("%w: ffmpeg not found", youtube.ErrTranscode)
			},
			wantKind: youtube.ErrTranscode,
		},
		{
			name:     "model load failed",
			setup:    func(h *harness) { h.loadErr = errors.New("out of memory") },
			wantKind: transcribe.ErrTranscription,
		},
		{
			name:     "inference failed",
			setup:    func(h *harness) { h.transcriber.err = errors.New("corrupt audio") },
			wantKind: transcribe.ErrTranscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			outcome, err := h.pipeline(t).Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Empty(t, h.transcriptFiles(t))
			assert.Empty(t, h.opened)
		})
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = fmt.Errorf("%w: video unavailable", youtube.ErrSource)

	_, err := h.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, h.downloader.calls)
	assert.Equal(t, 0, h.loads)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(config.Default(), Deps{})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "héll", preview("héllo", 4))

	long := strings.Repeat("a", 1500)
	assert.Len(t, preview(long, previewLength), previewLength)
}
