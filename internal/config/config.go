package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/mgpai22/ytscribe/internal/transcribe"
)

const (
	DefaultOutputDir = "audio"

	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
)

// settings for one transcription run
type Config struct {
	URL       string
	ModelTier transcribe.ModelTier
	OutputDir string // audio file prefix: <OutputDir>_<title>.mp3

	Provider      transcribe.Provider
	Model         string // hosted model override
	Prompt        string // vocabulary or context hint for the model
	APIKey        string
	WhisperPath   string
	TranscriptDir string // "" means the working directory
	OpenViewer    bool
	InstallYTDLP  bool
}

func Default() Config {
	return Config{
		ModelTier:  transcribe.DefaultModelTier,
		OutputDir:  DefaultOutputDir,
		Provider:   transcribe.ProviderWhisper,
		OpenViewer: true,
	}
}

// fills the API key from the provider's environment variable when unset
func (c *Config) ResolveAPIKey(getenv func(string) string) {
	if c.APIKey != "" {
		return
	}
	switch c.Provider {
	case transcribe.ProviderOpenAI:
		c.APIKey = getenv(EnvOpenAIKey)
	case transcribe.ProviderGemini:
		c.APIKey = getenv(EnvGeminiKey)
	}
}

func (c Config) Validate() error {
	if err := ValidateURL(c.URL); err != nil {
		return err
	}
	if _, err := transcribe.ParseModelTier(string(c.ModelTier)); err != nil {
		return err
	}
	if _, err := transcribe.ParseProvider(string(c.Provider)); err != nil {
		return err
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output dir prefix must not be empty")
	}
	if strings.HasPrefix(c.OutputDir, "-") {
		return fmt.Errorf("output dir prefix %q must not start with '-'", c.OutputDir)
	}
	if strings.ContainsAny(c.OutputDir, `/\`) {
		return fmt.Errorf("output dir prefix %q must not contain path separators", c.OutputDir)
	}
	if c.Provider != transcribe.ProviderWhisper && c.APIKey == "" {
		return fmt.Errorf("%s provider requires an API key: use --api-key or set %s", c.Provider, c.apiKeyEnv())
	}
	if c.TranscriptDir != "" {
		info, err := os.Stat(c.TranscriptDir)
		if err != nil {
			return fmt.Errorf("transcript dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("transcript dir %s is not a directory", c.TranscriptDir)
		}
	}
	return nil
}

func (c Config) apiKeyEnv() string {
	if c.Provider == transcribe.ProviderGemini {
		return EnvGeminiKey
	}
	return EnvOpenAIKey
}

// accepts absolute http(s) URLs; yt-dlp decides whether the site is supported
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("video URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid video URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid video URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid video URL %q: missing host", raw)
	}
	return nil
}
