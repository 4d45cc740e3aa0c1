// Package youtube wraps yt-dlp for the two remote operations the transcriber
// needs: reading a video's title and pulling its audio track as mp3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lrstanley/go-ytdlp"
)

var (
	// ErrSource covers unreachable or rejected URLs, unavailable formats and
	// unreadable metadata.
	ErrSource = errors.New("video source error")

	// ErrTranscode covers a missing ffmpeg or a failed audio post-processing step.
	ErrTranscode = errors.New("audio transcoding error")
)

// fallback used when the metadata carries no title field
const DefaultTitle = "audio"

// runs a prepared yt-dlp command and hands back its captured output
type execFunc func(ctx context.Context, cmd *ytdlp.Command, url string) (stdout, stderr string, err error)

func runYTDLP(ctx context.Context, cmd *ytdlp.Command, url string) (string, string, error) {
	result, err := cmd.Run(ctx, url)
	if result == nil {
		return "", "", err
	}
	return result.Stdout, result.Stderr, err
}

// Install downloads a pinned yt-dlp build into the user cache when none is
// available on PATH.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	return nil
}

func validateExecutable(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("yt-dlp executable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("yt-dlp executable %s is a directory", path)
	}
	return nil
}
