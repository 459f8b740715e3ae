package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/washoverlay/internal/media"
	"github.com/maauso/washoverlay/internal/storage"
)

type fixture struct {
	dir       string
	primary   string
	secondary string
	marker    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_REGION", "")

	dir := t.TempDir()
	f := fixture{
		dir:       dir,
		primary:   filepath.Join(dir, "left.mp4"),
		secondary: filepath.Join(dir, "right.mp4"),
		marker:    filepath.Join(dir, "ffmpeg-ran"),
	}
	require.NoError(t, os.WriteFile(f.primary, []byte("left"), 0600))
	require.NoError(t, os.WriteFile(f.secondary, []byte("right"), 0600))
	return f
}

// fakeFFmpeg writes a script that records that it ran and exits with code.
func (f fixture) fakeFFmpeg(t *testing.T, code string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg scripts need a POSIX shell")
	}
	path := filepath.Join(f.dir, "ffmpeg")
	script := "#!/bin/sh\ntouch '" + f.marker + "'\necho 'frame=1' >&2\nexit " + code + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0700)) // #nosec G306 - test executable
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_RequiresThreeArgs(t *testing.T) {
	_, err := execute(t, "only-one.mp4")
	assert.Error(t, err)
}

func TestRootCommand_DryRun(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "out", "new", "result.mp4")
	bin := f.fakeFFmpeg(t, "0")

	out, err := execute(t, "--dry-run", "--ffmpeg", bin, f.primary, f.secondary, output)
	require.NoError(t, err)

	line := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(line, bin+" -i "+f.primary+" -i "+f.secondary+" -filter_complex "))
	assert.Contains(t, line, media.FilterGraph(media.DefaultWashParams()))
	assert.True(t, strings.HasSuffix(line, "-y "+output))
	assert.NoDirExists(t, filepath.Join(f.dir, "out"))
	assert.NoFileExists(t, f.marker)
}

func TestRootCommand_DryRunRejectsMissingInput(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--dry-run", filepath.Join(f.dir, "absent.mp4"), f.secondary, "out.mp4")
	assert.ErrorIs(t, err, media.ErrInputMissing)
}

func TestRootCommand_Success(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "out", "new", "result.mp4")
	bin := f.fakeFFmpeg(t, "0")

	out, err := execute(t, "--ffmpeg", bin, f.primary, f.secondary, output)
	require.NoError(t, err)

	assert.Equal(t, output, strings.TrimSpace(out))
	assert.DirExists(t, filepath.Join(f.dir, "out", "new"))
	assert.FileExists(t, f.marker)
}

func TestRootCommand_FFmpegFails(t *testing.T) {
	f := newFixture(t)
	bin := f.fakeFFmpeg(t, "1")

	_, err := execute(t, "--ffmpeg", bin, f.primary, f.secondary, filepath.Join(f.dir, "result.mp4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrProcessExitedNonZero)
	assert.Contains(t, err.Error(), "process_exited_nonzero")
}

func TestRootCommand_UploadWithoutS3(t *testing.T) {
	f := newFixture(t)
	bin := f.fakeFFmpeg(t, "0")

	_, err := execute(t, "--upload", "--ffmpeg", bin, f.primary, f.secondary, filepath.Join(f.dir, "result.mp4"))
	assert.ErrorIs(t, err, storage.ErrS3NotConfigured)
	assert.NoFileExists(t, f.marker, "ffmpeg must not run when publishing cannot succeed")
}
