package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	EnvFFmpegPath  = "YTSCRIBE_FFMPEG_PATH"
	EnvFFprobePath = "YTSCRIBE_FFPROBE_PATH"
)

// ErrUnavailable is returned when neither a configured, installed, cached nor
// downloadable ffmpeg build can be found.
var ErrUnavailable = errors.New("ffmpeg unavailable")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Dir is the directory holding both binaries, which is what yt-dlp expects
// for --ffmpeg-location. Locate only returns pairs that share a directory.
func (p BinaryPaths) Dir() string {
	return filepath.Dir(p.FFmpeg)
}

func (p BinaryPaths) colocated() bool {
	return filepath.Dir(p.FFmpeg) == filepath.Dir(p.FFprobe)
}

// Locator resolves ffmpeg and ffprobe. Resolution order: environment
// overrides, PATH, the per-user cache, an embedded bundle, then a download
// of a prebuilt release into the cache.
type Locator struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
	CacheDir string
	GOOS     string
	GOARCH   string
	Fetch    func(url string) (io.ReadCloser, error)
}

func NewLocator() *Locator {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &Locator{
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
		CacheDir: cacheDir,
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		Fetch:    httpFetch,
	}
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves the binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = NewLocator().Locate()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (l *Locator) Locate() (BinaryPaths, error) {
	if paths, ok, err := l.fromEnv(); ok || err != nil {
		return paths, err
	}
	if paths, ok := l.fromPath(); ok {
		return paths, nil
	}

	assetName, err := assetForPlatform(l.GOOS, l.GOARCH)
	if err != nil {
		return BinaryPaths{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	installDir := l.installDir()
	suffix := executableSuffix(l.GOOS)
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+suffix),
		FFprobe: filepath.Join(installDir, "ffprobe"+suffix),
	}
	if cached.exist() {
		return cached, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embedded, err := l.installEmbedded(assetName, installDir)
	if err != nil {
		return BinaryPaths{}, err
	}
	if !embedded {
		if err := l.installRelease(assetName, installDir); err != nil {
			return BinaryPaths{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if !cached.exist() {
		return BinaryPaths{}, fmt.Errorf("%w: binaries missing after extraction", ErrUnavailable)
	}
	if err := cached.makeExecutable(l.GOOS); err != nil {
		return BinaryPaths{}, err
	}

	return cached, nil
}

// env overrides must name a pair that lives in one directory; a single
// override picks up its sibling
func (l *Locator) fromEnv() (BinaryPaths, bool, error) {
	paths := BinaryPaths{
		FFmpeg:  l.Getenv(EnvFFmpegPath),
		FFprobe: l.Getenv(EnvFFprobePath),
	}
	suffix := executableSuffix(l.GOOS)
	switch {
	case paths.FFmpeg == "" && paths.FFprobe == "":
		return BinaryPaths{}, false, nil
	case paths.FFprobe == "":
		paths.FFprobe = filepath.Join(filepath.Dir(paths.FFmpeg), "ffprobe"+suffix)
		if !fileExists(paths.FFprobe) {
			return BinaryPaths{}, false, fmt.Errorf("%w: no ffprobe next to %s; set %s as well", ErrUnavailable, paths.FFmpeg, EnvFFprobePath)
		}
	case paths.FFmpeg == "":
		paths.FFmpeg = filepath.Join(filepath.Dir(paths.FFprobe), "ffmpeg"+suffix)
		if !fileExists(paths.FFmpeg) {
			return BinaryPaths{}, false, fmt.Errorf("%w: no ffmpeg next to %s; set %s as well", ErrUnavailable, paths.FFprobe, EnvFFmpegPath)
		}
	}
	if !paths.colocated() {
		return BinaryPaths{}, false, fmt.Errorf("%w: %s and %s must be in the same directory", ErrUnavailable, EnvFFmpegPath, EnvFFprobePath)
	}
	return paths, true, nil
}

// uses ffmpeg from PATH when ffprobe sits next to it
func (l *Locator) fromPath() (BinaryPaths, bool) {
	ffmpegPath, err := l.LookPath("ffmpeg")
	if err != nil {
		return BinaryPaths{}, false
	}
	paths := BinaryPaths{FFmpeg: ffmpegPath}
	if found, err := l.LookPath("ffprobe"); err == nil {
		paths.FFprobe = found
	}
	if paths.FFprobe != "" && paths.colocated() {
		return paths, true
	}
	sibling := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe"+executableSuffix(l.GOOS))
	if fileExists(sibling) {
		paths.FFprobe = sibling
		return paths, true
	}
	return BinaryPaths{}, false
}

func (l *Locator) installDir() string {
	return filepath.Join(l.CacheDir, "ytscribe", "ffmpeg", releaseVersion, l.GOOS, l.GOARCH)
}

func (l *Locator) installEmbedded(assetName, installDir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	return true, extractArchiveFromReader(assetName, reader, installDir, l.GOOS)
}

func (l *Locator) installRelease(assetName, installDir string) error {
	url := fmt.Sprintf("%s/v%s/%s", releaseBaseURL, releaseVersion, assetName)
	body, err := l.Fetch(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = body.Close() }()

	return extractArchiveFromReader(assetName, body, installDir, l.GOOS)
}

func httpFetch(url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	var platform string
	switch {
	case goos == "linux" && goarch == "amd64":
		platform = "linux-64"
	case goos == "linux" && goarch == "arm64":
		platform = "linux-arm-64"
	case goos == "darwin" && goarch == "amd64":
		platform = "macos-64"
	case goos == "windows" && goarch == "amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("no prebuilt ffmpeg for %s/%s", goos, goarch)
	}
	return "ffmpeg-" + releaseVersion + "-" + platform + ".zip", nil
}

// zip.Reader needs random access, so the stream is spooled to disk first
func extractArchiveFromReader(assetName string, reader io.Reader, installDir, goos string) error {
	tmpFile, err := os.CreateTemp("", "ytscribe-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir, goos); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, installDir, goos string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	suffix := executableSuffix(goos)
	found := map[string]bool{}
	for _, file := range zipReader.File {
		name := binaryName(filepath.Base(file.Name))
		if name == "" {
			continue
		}
		if err := extractZipFile(file, filepath.Join(installDir, name+suffix)); err != nil {
			return err
		}
		found[name] = true
	}

	if !found["ffmpeg"] || !found["ffprobe"] {
		return errors.New("archive missing ffmpeg or ffprobe")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}

	if _, err := io.Copy(out, reader); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return out.Close()
}

func (p BinaryPaths) exist() bool {
	return fileExists(p.FFmpeg) && fileExists(p.FFprobe)
}

func (p BinaryPaths) makeExecutable(goos string) error {
	if goos == "windows" {
		return nil
	}
	for _, path := range []string{p.FFmpeg, p.FFprobe} {
		if err := os.Chmod(path, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// maps an archive entry to "ffmpeg" or "ffprobe", or "" for anything else
func binaryName(entry string) string {
	name := strings.TrimSuffix(strings.ToLower(entry), ".exe")
	switch name {
	case "ffmpeg", "ffprobe":
		return name
	default:
		return ""
	}
}

func executableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
