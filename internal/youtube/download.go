package youtube

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/mgpai22/ytscribe/internal/audio"
	"github.com/mgpai22/ytscribe/internal/ffmpeg"
	"github.com/mgpai22/ytscribe/internal/logging"
)

// yt-dlp settings for audio extraction
type DownloadOptions struct {
	Executable   string // yt-dlp binary, empty resolves from PATH or the install cache
	Format       string // format selector, e.g. "bestaudio/best"
	AudioFormat  string // post-processing codec; also the output file extension
	AudioQuality string // e.g. "192K"
	FFmpegPath   string // ffmpeg binary or directory, empty resolves via internal/ffmpeg
}

func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Format:       "bestaudio/best",
		AudioFormat:  "mp3",
		AudioQuality: "192K",
	}
}

// codecs whose yt-dlp output extension matches the codec name
var supportedAudioFormats = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"opus": true,
	"flac": true,
	"wav":  true,
}

func (o DownloadOptions) Validate() error {
	if err := validateExecutable(o.Executable); err != nil {
		return err
	}
	if strings.TrimSpace(o.Format) == "" {
		return fmt.Errorf("format selector is required")
	}
	if !supportedAudioFormats[o.AudioFormat] {
		return fmt.Errorf("unsupported audio format %q", o.AudioFormat)
	}
	if strings.TrimSpace(o.AudioQuality) == "" {
		return fmt.Errorf("audio quality is required")
	}
	return nil
}

// downloads the best audio stream and transcodes it with yt-dlp's ffmpeg
// post-processor
type Downloader struct {
	opts   DownloadOptions
	log    *logging.Logger
	exec   execFunc
	ffmpeg func() (ffmpeg.BinaryPaths, error)
	probe  func(ctx context.Context, path string) (time.Duration, error)
}

func NewDownloader(opts DownloadOptions, log *logging.Logger) (*Downloader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Downloader{
		opts:   opts,
		log:    log,
		exec:   runYTDLP,
		ffmpeg: ffmpeg.Ensure,
		probe:  audio.GetDuration,
	}, nil
}

// AudioPath is the file the downloader produces: "<prefix>_<title>.<ext>".
func AudioPath(prefix, safeTitle, ext string) string {
	return outputBase(prefix, safeTitle) + "." + ext
}

func outputBase(prefix, safeTitle string) string {
	return prefix + "_" + safeTitle
}

func (d *Downloader) command(template, ffmpegLocation string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(d.opts.Format).
		NoPlaylist().
		Quiet().
		NoWarnings().
		NoProgress().
		ForceOverwrites().
		ExtractAudio().
		AudioFormat(d.opts.AudioFormat).
		AudioQuality(d.opts.AudioQuality).
		Output(template)
	if ffmpegLocation != "" {
		cmd.FFmpegLocation(ffmpegLocation)
	}
	if d.opts.Executable != "" {
		cmd.SetExecutable(d.opts.Executable)
	}
	return cmd
}

func (d *Downloader) ffmpegLocation() (string, error) {
	if d.opts.FFmpegPath != "" {
		return d.opts.FFmpegPath, nil
	}
	paths, err := d.ffmpeg()
	if err != nil {
		return "", err
	}
	return paths.Dir(), nil
}

// Download fetches the audio of url into "<outputDir>_<safeTitle>.<AudioFormat>"
// and returns that path. The extension comes from the options, not from what
// yt-dlp reports.
func (d *Downloader) Download(ctx context.Context, url, outputDir, safeTitle string) (string, error) {
	location, err := d.ffmpegLocation()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscode, err)
	}

	base := outputBase(outputDir, safeTitle)
	audioPath := AudioPath(outputDir, safeTitle, d.opts.AudioFormat)

	d.log.Infow("Downloading audio",
		"url", url,
		"output", audioPath,
		"format", d.opts.Format,
		"codec", d.opts.AudioFormat,
		"quality", d.opts.AudioQuality,
	)

	_, stderr, err := d.exec(ctx, d.command(base+".%(ext)s", location), url)
	if err != nil {
		return "", classifyDownloadError(url, stderr, err)
	}

	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("%w: expected %s after post-processing: %w", ErrTranscode, audioPath, err)
	}

	if duration, err := d.probe(ctx, audioPath); err != nil {
		d.log.Debugw("Could not probe audio duration", "path", audioPath, "error", err)
	} else {
		d.log.Infow("Audio ready", "path", audioPath, "duration", duration.String())
	}

	return audioPath, nil
}

var transcodeMarkers = []string{
	"ffmpeg",
	"ffprobe",
	"postprocessing",
	"extractaudio",
}

func classifyDownloadError(url, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	for _, marker := range transcodeMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s: %w%s", ErrTranscode, url, err, stderrSuffix(stderr))
		}
	}
	return fmt.Errorf("%w: download %s: %w%s", ErrSource, url, err, stderrSuffix(stderr))
}
