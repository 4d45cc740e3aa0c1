package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// implements Transcriber by running the openai-whisper CLI once over the
// whole file and reading back its json output
type WhisperTranscriber struct {
	executable string
	tier       ModelTier
	prompt     string
	run        func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewWhisperTranscriber(opts Options) (*WhisperTranscriber, error) {
	tier := opts.Tier
	if tier == "" {
		tier = DefaultModelTier
	}
	if _, err := ParseModelTier(string(tier)); err != nil {
		return nil, err
	}

	executable := opts.WhisperPath
	if executable == "" {
		found, err := exec.LookPath("whisper")
		if err != nil {
			return nil, fmt.Errorf("whisper executable not found on PATH (install openai-whisper or pass --whisper-path): %w", err)
		}
		executable = found
	} else if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("whisper executable: %w", err)
	}

	return &WhisperTranscriber{
		executable: executable,
		tier:       tier,
		prompt:     opts.Prompt,
		run:        combinedOutput,
	}, nil
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// the audio path goes after "--" so a name starting with '-' stays positional
func (t *WhisperTranscriber) args(audioPath, outputDir string) []string {
	args := []string{
		"--model", string(t.tier),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if t.prompt != "" {
		args = append(args, "--initial_prompt="+t.prompt)
	}
	return append(args, "--", audioPath)
}

// subset of the json file whisper writes
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		End float64 `json:"end"`
	} `json:"segments"`
}

func parseWhisperOutput(data []byte) (*Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}
	result := &Result{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
	}
	if n := len(out.Segments); n > 0 {
		result.Duration = time.Duration(out.Segments[n-1].End * float64(time.Second))
	}
	return result, nil
}

// transcribes single audio file
func (t *WhisperTranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	if err := checkAudio(audioPath); err != nil {
		return nil, err
	}

	outputDir, err := os.MkdirTemp("", "ytscribe-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp directory: %w", ErrTranscription, err)
	}
	defer os.RemoveAll(outputDir)

	out, err := t.run(ctx, t.executable, t.args(audioPath, outputDir)...)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper %s failed: %w: %s", ErrTranscription, t.tier, err, tail(string(out), 500))
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outputDir, stem+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: whisper produced no transcript: %w", ErrTranscription, err)
	}

	result, err := parseWhisperOutput(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	// the console line names the language, the json only has its code
	if lang := detectedLanguage(string(out)); lang != "" {
		result.Language = lang
	}
	return result, nil
}

var detectedLanguageRe = regexp.MustCompile(`Detected language:\s*([A-Za-z][A-Za-z -]*)`)

func detectedLanguage(output string) string {
	m := detectedLanguageRe.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// last maxLen bytes of s, for error messages
func tail(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}
