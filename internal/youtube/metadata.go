package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/mgpai22/ytscribe/internal/logging"
)

type MetadataOptions struct {
	Executable string // yt-dlp binary, empty resolves from PATH or the install cache
}

func (o MetadataOptions) Validate() error {
	return validateExecutable(o.Executable)
}

// reads video metadata without downloading media
type Fetcher struct {
	opts MetadataOptions
	log  *logging.Logger
	exec execFunc
}

func NewFetcher(opts MetadataOptions, log *logging.Logger) (*Fetcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Fetcher{opts: opts, log: log, exec: runYTDLP}, nil
}

func (f *Fetcher) command() *ytdlp.Command {
	cmd := ytdlp.New().
		SkipDownload().
		DumpJSON().
		NoPlaylist().
		Quiet().
		NoWarnings()
	if f.opts.Executable != "" {
		cmd.SetExecutable(f.opts.Executable)
	}
	return cmd
}

// FetchTitle returns the video's title, or DefaultTitle when the metadata has
// no title field. Playlist URLs resolve to the single referenced video.
func (f *Fetcher) FetchTitle(ctx context.Context, url string) (string, error) {
	f.log.Debugw("Fetching video metadata", "url", url)

	stdout, stderr, err := f.exec(ctx, f.command(), url)
	if err != nil {
		return "", fmt.Errorf("%w: fetch metadata for %s: %w%s", ErrSource, url, err, stderrSuffix(stderr))
	}

	title, err := parseTitle(stdout)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSource, err)
	}

	f.log.Debugw("Fetched video metadata", "url", url, "title", title)
	return title, nil
}

type videoInfo struct {
	Title *string `json:"title"`
}

// yt-dlp prints one JSON object per line; the first one describes the video
func parseTitle(stdout string) (string, error) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var info videoInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return "", fmt.Errorf("failed to parse metadata: %w", err)
		}
		if info.Title == nil {
			return DefaultTitle, nil
		}
		return *info.Title, nil
	}

	return "", fmt.Errorf("no metadata in yt-dlp output")
}

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	return " (" + lastLine(stderr) + ")"
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
