package cli

import (
	"errors"
	"io/fs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mgpai22/ytscribe/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ytscribe",
	Short: "Transcribe the audio of YouTube videos",
	Long: `ytscribe downloads the audio track of a video, transcribes it with a
Whisper speech-to-text model and saves the transcript in the current directory as
transcription_<title>.txt.

Transcription runs locally with the openai-whisper CLI by default; the
OpenAI and Gemini APIs are available as alternatives.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; a malformed one is not
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		logger = logging.NewLogger(verbose).With("run_id", uuid.NewString())
		return nil
	},
}

func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
