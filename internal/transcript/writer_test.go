package transcript

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/ytscribe/internal/viewer"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "transcription_My_Video__Part_1_2.txt", FileName("My Video: Part 1/2"))
	assert.Equal(t, "transcription_.txt", FileName(""))
	assert.Equal(t, FileName("Test/Video"), FileName("Test_Video"))
}

func TestSaveWritesExactContent(t *testing.T) {
	dir := t.TempDir()
	text := "héllo wörld — 日本語\nsecond line"

	var opened string
	var out bytes.Buffer
	w := &Writer{
		Dir: dir,
		Opener: viewer.Func(func(path string) error {
			opened = path
			return nil
		}),
		Out: &out,
	}

	saved, err := w.Save("My Video: Part 1/2", text)
	require.NoError(t, err)

	wantPath := filepath.Join(dir, "transcription_My_Video__Part_1_2.txt")
	assert.Equal(t, wantPath, saved.Path)
	assert.True(t, filepath.IsAbs(saved.Path))
	assert.Nil(t, saved.Warning)
	assert.Equal(t, saved.Path, opened)
	assert.Contains(t, out.String(), "Transcription saved to: "+wantPath)

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte(text), got)
}

func TestSaveEmptyTitle(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}

	saved, err := w.Save("", "text")
	require.NoError(t, err)
	assert.Equal(t, "transcription_.txt", filepath.Base(saved.Path))
	assert.FileExists(t, saved.Path)
}

func TestSaveOpenFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	openErr := errors.New("no display")

	var out bytes.Buffer
	w := &Writer{
		Dir:    dir,
		Opener: viewer.Func(func(string) error { return openErr }),
		Out:    &out,
	}

	saved, err := w.Save("Test/Video", "hello world")
	require.NoError(t, err)
	require.NotNil(t, saved.Warning)
	assert.ErrorIs(t, saved.Warning, openErr)
	assert.Equal(t, saved.Path, saved.Warning.Path)
	assert.Contains(t, out.String(), "Could not open the file automatically")

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestSaveOverwrites(t *testing.T) {
	w := &Writer{Dir: t.TempDir()}

	_, err := w.Save("same", "first run, longer text")
	require.NoError(t, err)
	saved, err := w.Save("same", "second")
	require.NoError(t, err)

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestSaveWriteErrorIsNotSuppressed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	opened := false
	w := &Writer{
		Dir:    filepath.Join(blocker, "sub"),
		Opener: viewer.Func(func(string) error { opened = true; return nil }),
	}

	_, err := w.Save("t", "text")
	assert.Error(t, err)
	assert.False(t, opened, "viewer must not run when the write failed")
}
