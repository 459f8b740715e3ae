package media

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeFFmpeg writes an executable shell script that stands in for ffmpeg.
func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0700)) // #nosec G306 - test executable
	return path
}

// lineRecorder collects forwarded lines.
type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) record(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *lineRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestExecRunner_Success(t *testing.T) {
	bin := writeFakeFFmpeg(t, `echo "out: $1 $2"
echo "err: progress" >&2
exit 0`)

	var rec lineRecorder
	err := NewExecRunner().Run(context.Background(), CommandSpec{Binary: bin, Args: []string{"-i", "left.mp4"}}, rec.record)
	require.NoError(t, err)

	lines := rec.all()
	assert.Contains(t, lines, "out: -i left.mp4")
	assert.Contains(t, lines, "err: progress", "stderr must be forwarded with stdout")
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	bin := writeFakeFFmpeg(t, `echo "Invalid data found when processing input" >&2
exit 1`)

	var rec lineRecorder
	spec := CommandSpec{Binary: bin, Args: []string{"-y", "out.mp4"}}
	err := NewExecRunner().Run(context.Background(), spec, rec.record)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, spec.Argv(), exitErr.Args)
	assert.ErrorIs(t, err, ErrProcessExitedNonZero)
	assert.Equal(t, []string{"Invalid data found when processing input"}, rec.all())
}

func TestExecRunner_ExitCodeSurfaced(t *testing.T) {
	bin := writeFakeFFmpeg(t, "exit 187")

	err := NewExecRunner().Run(context.Background(), CommandSpec{Binary: bin}, nil)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 187, exitErr.Code)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	spec := CommandSpec{Binary: filepath.Join(t.TempDir(), "no-such-ffmpeg")}

	err := NewExecRunner().Run(context.Background(), spec, nil)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.ErrorIs(t, err, ErrProcessSpawn)
	assert.Equal(t, spec.Binary, spawnErr.Binary)
}

func TestExecRunner_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec bits are not enforced on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0600))

	err := NewExecRunner().Run(context.Background(), CommandSpec{Binary: path}, nil)
	assert.ErrorIs(t, err, ErrProcessSpawn)
}

func TestExecRunner_Cancelled(t *testing.T) {
	bin := writeFakeFFmpeg(t, `echo started
exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var once sync.Once

	go func() {
		<-started
		cancel()
	}()

	begin := time.Now()
	err := NewExecRunner(WithWaitDelay(time.Second)).Run(ctx, CommandSpec{Binary: bin}, func(line string) {
		if line == "started" {
			once.Do(func() { close(started) })
		}
	})
	require.Error(t, err)

	var interrupted *InterruptedError
	require.ErrorAs(t, err, &interrupted)
	assert.ErrorIs(t, err, ErrProcessInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(begin), 10*time.Second, "child must be terminated, not awaited")
}

func TestExecRunner_AlreadyCancelled(t *testing.T) {
	bin := writeFakeFFmpeg(t, "exit 0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewExecRunner().Run(ctx, CommandSpec{Binary: bin}, nil)
	assert.ErrorIs(t, err, ErrProcessInterrupted)
}

func TestExecRunner_LargeOutputDoesNotDeadlock(t *testing.T) {
	// Well past any OS pipe buffer.
	bin := writeFakeFFmpeg(t, `i=0
while [ $i -lt 20000 ]; do
  echo "frame=$i fps=25.0 q=28.0 size=1024kB time=00:00:01.00 bitrate=8388.6kbits/s speed=1.0x" >&2
  i=$((i+1))
done
exit 0`)

	count := 0
	err := NewExecRunner().Run(context.Background(), CommandSpec{Binary: bin}, func(string) { count++ })
	require.NoError(t, err)
	assert.Equal(t, 20000, count)
}

func TestScanOutputLines(t *testing.T) {
	input := "line one\nframe=1\rframe=2\r\nlast"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanOutputLines)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"line one", "frame=1", "frame=2", "", "last"}, tokens)
}

func TestDrainLines_SplitsOverlongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineBytes+10)

	var rec lineRecorder
	drainLines(strings.NewReader(long+"\nnext\n"), rec.record)

	lines := rec.all()
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], maxLineBytes)
	assert.Equal(t, strings.Repeat("x", 10), lines[1])
	assert.Equal(t, "next", lines[2])
}
