package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgpai22/ytscribe/internal/filename"
	"github.com/mgpai22/ytscribe/internal/logging"
	"github.com/mgpai22/ytscribe/internal/viewer"
)

// OpenWarning reports that a written transcript could not be shown in a viewer.
// The transcript itself is intact.
type OpenWarning struct {
	Path string
	Err  error
}

func (w *OpenWarning) Error() string {
	return fmt.Sprintf("could not open %s automatically: %v", w.Path, w.Err)
}

func (w *OpenWarning) Unwrap() error {
	return w.Err
}

// outcome of a successful save
type Saved struct {
	Path    string       // absolute
	Warning *OpenWarning // nil when the viewer launched
}

// persists transcripts as transcription_<title>.txt and opens them
type Writer struct {
	Dir    string        // target directory, "" means the working directory
	Opener viewer.Opener // nil skips opening
	Out    io.Writer     // status lines, nil discards
	Log    *logging.Logger
}

// FileName is the transcript file name for a title; the title is sanitized
// first so raw and already-safe titles give the same name.
func FileName(title string) string {
	return "transcription_" + filename.Sanitize(title) + ".txt"
}

// Save writes text to the transcript file for title and then tries to open
// it. Only the open step is allowed to fail softly.
func (w *Writer) Save(title, text string) (*Saved, error) {
	path := filepath.Join(w.Dir, FileName(title))

	if err := writeFile(path, text); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transcript path: %w", err)
	}

	if w.Out != nil {
		fmt.Fprintf(w.Out, "Transcription saved to: %s\n", absPath)
	}

	saved := &Saved{Path: absPath}
	if w.Opener == nil {
		return saved, nil
	}

	if err := w.Opener.Open(absPath); err != nil {
		saved.Warning = &OpenWarning{Path: absPath, Err: err}
		w.logger().Warnw("Could not open transcript automatically",
			"path", absPath,
			"error", err,
		)
		if w.Out != nil {
			fmt.Fprintf(w.Out, "Could not open the file automatically: %v\n", err)
		}
	}

	return saved, nil
}

func (w *Writer) logger() *logging.Logger {
	if w.Log == nil {
		return logging.Nop()
	}
	return w.Log
}

func writeFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}

	if _, err := io.WriteString(f, text); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close transcript: %w", err)
	}
	return nil
}
