package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/ytscribe/internal/config"
	"github.com/mgpai22/ytscribe/internal/pipeline"
	"github.com/mgpai22/ytscribe/internal/transcribe"
	"github.com/mgpai22/ytscribe/internal/transcript"
	"github.com/mgpai22/ytscribe/internal/viewer"
	"github.com/mgpai22/ytscribe/internal/youtube"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [video_url]",
	Short: "Download a video's audio and transcribe it to a text file",
	Long: `Download the audio track of a video, transcribe it, and save the transcript.

The audio is saved as <output-dir>_<title>.mp3 and the transcript as
transcription_<title>.txt, where <title> is the video title with every
character other than letters, digits, '_' and '-' replaced by '_'.
The transcript is opened in the default viewer afterwards unless --no-open is set.

Model tiers for the local whisper provider: tiny, base, small, medium, large, turbo.

Examples:
  ytscribe transcribe "https://www.youtube.com/watch?v=BJjsfNO5JTo"
  ytscribe transcribe https://youtu.be/BJjsfNO5JTo -m small
  ytscribe transcribe https://youtu.be/BJjsfNO5JTo --provider openai --no-open`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	addTranscribeFlags(transcribeCmd)
}

func addTranscribeFlags(cmd *cobra.Command) {
	addDownloadFlags(cmd)
	cmd.Flags().
		StringP("model-tier", "m", string(transcribe.DefaultModelTier), "Whisper model tier ("+tierList()+")")
	cmd.Flags().
		StringP("provider", "p", string(transcribe.ProviderWhisper), "Transcription provider (whisper, openai, gemini)")
	cmd.Flags().
		String("model", "", "Hosted model name for the openai or gemini provider")
	cmd.Flags().
		String("prompt", "", "Names or vocabulary to help the model (whisper --initial_prompt, API prompt)")
	cmd.Flags().
		StringP("api-key", "k", "", "API key (or set OPENAI_API_KEY/GEMINI_API_KEY env var)")
	cmd.Flags().
		String("whisper-path", "", "Path to the whisper executable (default: looked up on PATH)")
	cmd.Flags().
		String("transcript-dir", "", "Directory for the transcript file (default: current directory)")
	cmd.Flags().
		Bool("no-open", false, "Do not open the transcript after saving it")
}

func tierList() string {
	tiers := transcribe.ModelTiers()
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = string(tier)
	}
	return strings.Join(names, ", ")
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("output-dir", config.DefaultOutputDir, "Prefix for the downloaded audio file name")
	cmd.Flags().
		Bool("install-ytdlp", false, "Download yt-dlp into the user cache if it is not installed")
}

// reads flags and environment into a validated run configuration
func configFromFlags(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	cfg.URL = args[0]

	tierStr, _ := cmd.Flags().GetString("model-tier")
	providerStr, _ := cmd.Flags().GetString("provider")
	cfg.Model, _ = cmd.Flags().GetString("model")
	cfg.Prompt, _ = cmd.Flags().GetString("prompt")
	cfg.APIKey, _ = cmd.Flags().GetString("api-key")
	cfg.WhisperPath, _ = cmd.Flags().GetString("whisper-path")
	cfg.TranscriptDir, _ = cmd.Flags().GetString("transcript-dir")
	cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	cfg.InstallYTDLP, _ = cmd.Flags().GetBool("install-ytdlp")
	noOpen, _ := cmd.Flags().GetBool("no-open")
	cfg.OpenViewer = !noOpen

	tier, err := transcribe.ParseModelTier(tierStr)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ModelTier = tier

	provider, err := transcribe.ParseProvider(providerStr)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Provider = provider

	cfg.ResolveAPIKey(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := configFromFlags(cmd, args)
	if err != nil {
		return err
	}

	logger.Infow("Starting transcription",
		"url", cfg.URL,
		"provider", cfg.Provider,
		"model_tier", cfg.ModelTier,
		"output_dir", cfg.OutputDir,
	)

	fetcher, downloader, err := newYouTubeClients(ctx, cfg.InstallYTDLP)
	if err != nil {
		return err
	}

	var opener viewer.Opener = viewer.Nop{}
	if cfg.OpenViewer {
		opener = viewer.Default()
	}

	out := cmd.OutOrStdout()
	p, err := pipeline.New(cfg, pipeline.Deps{
		Fetcher:    fetcher,
		Downloader: downloader,
		LoadTranscriber: func(ctx context.Context) (transcribe.Transcriber, error) {
			return transcribe.Factory(ctx, cfg.Provider, cfg.APIKey, transcribe.Options{
				Tier:        cfg.ModelTier,
				Model:       cfg.Model,
				WhisperPath: cfg.WhisperPath,
				Prompt:      cfg.Prompt,
			})
		},
		Saver: &transcript.Writer{
			Dir:    cfg.TranscriptDir,
			Opener: opener,
			Out:    out,
			Log:    logger,
		},
		Out: out,
		Log: logger,
	})
	if err != nil {
		return err
	}

	if _, err := p.Run(ctx); err != nil {
		return describeFailure(err)
	}
	return nil
}

func newYouTubeClients(ctx context.Context, install bool) (*youtube.Fetcher, *youtube.Downloader, error) {
	if install {
		logger.Infow("Installing yt-dlp")
		if err := youtube.Install(ctx); err != nil {
			return nil, nil, err
		}
	}

	fetcher, err := youtube.NewFetcher(youtube.MetadataOptions{}, logger)
	if err != nil {
		return nil, nil, err
	}
	downloader, err := youtube.NewDownloader(youtube.DefaultDownloadOptions(), logger)
	if err != nil {
		return nil, nil, err
	}
	return fetcher, downloader, nil
}

// adds a hint for the operator depending on which stage failed
func describeFailure(err error) error {
	switch {
	case errors.Is(err, youtube.ErrTranscode):
		return fmt.Errorf("%w\nhint: ffmpeg is needed to convert audio; install it or set YTSCRIBE_FFMPEG_PATH", err)
	case errors.Is(err, youtube.ErrSource):
		return fmt.Errorf("%w\nhint: check the URL and your network; --install-ytdlp fetches a current yt-dlp", err)
	case errors.Is(err, transcribe.ErrTranscription):
		return fmt.Errorf("%w\nhint: try a smaller --model-tier or another --provider", err)
	default:
		return err
	}
}
