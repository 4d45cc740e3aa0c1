package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/ytscribe/internal/config"
	"github.com/mgpai22/ytscribe/internal/filename"
)

var downloadCmd = &cobra.Command{
	Use:   "download [video_url]",
	Short: "Download a video's audio as mp3 without transcribing it",
	Long: `Look up the video title and download its best audio stream, converted to
192 kbps mp3, as <output-dir>_<title>.mp3 in the current directory.

Examples:
  ytscribe download "https://www.youtube.com/watch?v=BJjsfNO5JTo"
  ytscribe download https://youtu.be/BJjsfNO5JTo --output-dir podcast`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addDownloadFlags(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.ValidateURL(url); err != nil {
		return err
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	install, _ := cmd.Flags().GetBool("install-ytdlp")

	cfg := config.Default()
	cfg.URL = url
	cfg.OutputDir = outputDir
	if err := cfg.Validate(); err != nil {
		return err
	}

	fetcher, downloader, err := newYouTubeClients(ctx, install)
	if err != nil {
		return err
	}

	title, err := fetcher.FetchTitle(ctx, url)
	if err != nil {
		return describeFailure(err)
	}

	audioPath, err := downloader.Download(ctx, url, cfg.OutputDir, filename.Sanitize(title))
	if err != nil {
		return describeFailure(err)
	}

	return printDownloaded(cmd.OutOrStdout(), audioPath, title)
}

func printDownloaded(out io.Writer, audioPath, title string) error {
	absOutput, err := filepath.Abs(audioPath)
	if err != nil {
		return fmt.Errorf("resolve audio path: %w", err)
	}
	fmt.Fprintf(out, "Audio downloaded successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Title: %s\n", title)
	return nil
}
