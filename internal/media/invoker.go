// Package media builds and supervises the ffmpeg run that overlays a
// cyan-washed, half-size secondary video on a red-washed primary video.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Request names the two inputs and the destination of one overlay run.
type Request struct {
	// Primary is the background video. It receives the red wash.
	Primary string `validate:"required"`
	// Secondary is the overlay video. It receives the cyan wash and is shrunk.
	Secondary string `validate:"required"`
	// Output is where ffmpeg writes the result. Existing files are overwritten.
	Output string `validate:"required"`
}

// ResultKind tags the outcome of an overlay run.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultInvalidInput
	ResultOutputDirCreationFailed
	ResultProcessSpawnFailed
	ResultProcessExitedNonZero
	ResultProcessInterrupted
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultInvalidInput:
		return "invalid_input"
	case ResultOutputDirCreationFailed:
		return "output_dir_creation_failed"
	case ResultProcessSpawnFailed:
		return "process_spawn_failed"
	case ResultProcessExitedNonZero:
		return "process_exited_nonzero"
	case ResultProcessInterrupted:
		return "process_interrupted"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the outcome of Invoker.Overlay.
type Result struct {
	Kind ResultKind
	// OutputPath is set on success.
	OutputPath string
	// ExitCode is ffmpeg's exit status when Kind is ResultProcessExitedNonZero.
	ExitCode int
	// Err holds the cause of any failure.
	Err error
}

// OK reports whether the run succeeded.
func (r Result) OK() bool {
	return r.Kind == ResultSuccess
}

// Invoker validates a Request, prepares the output directory and runs ffmpeg.
// It holds no per-run state and is safe for concurrent use.
type Invoker struct {
	ffmpegPath string
	wash       WashParams
	runner     Runner
	prepareDir func(output string) error
	validate   *validator.Validate
	logger     *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithFFmpegPath sets the ffmpeg binary. Empty keeps "ffmpeg" resolved via PATH.
func WithFFmpegPath(path string) InvokerOption {
	return func(i *Invoker) {
		if path != "" {
			i.ffmpegPath = path
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) InvokerOption {
	return func(i *Invoker) {
		i.runner = r
	}
}

// WithWashParams overrides the default channel mix and geometry.
func WithWashParams(p WashParams) InvokerOption {
	return func(i *Invoker) {
		i.wash = p
	}
}

// WithDirPreparer replaces PrepareOutputDir.
func WithDirPreparer(fn func(output string) error) InvokerOption {
	return func(i *Invoker) {
		i.prepareDir = fn
	}
}

// WithLogger sets the logger used for diagnostics and ffmpeg output.
func WithLogger(l *slog.Logger) InvokerOption {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewInvoker creates an Invoker that runs ffmpeg from PATH with the default wash.
func NewInvoker(opts ...InvokerOption) *Invoker {
	i := &Invoker{
		ffmpegPath: "ffmpeg",
		wash:       DefaultWashParams(),
		runner:     NewExecRunner(),
		prepareDir: PrepareOutputDir,
		validate:   validator.New(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Command returns the ffmpeg invocation Overlay would run for req.
func (i *Invoker) Command(req Request) CommandSpec {
	return BuildOverlayCommand(i.ffmpegPath, req.Primary, req.Secondary, req.Output, i.wash)
}

// Validate checks that req is complete and both inputs are readable files.
func (i *Invoker) Validate(req Request) error {
	if err := i.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return ValidateInputs(req.Primary, req.Secondary)
}

// Overlay runs the full pipeline for req and blocks until ffmpeg exits. Each
// stage runs only if the previous one succeeded; no stage is retried.
func (i *Invoker) Overlay(ctx context.Context, req Request) Result {
	logger := i.logger.With(slog.String("output", req.Output))

	if err := i.Validate(req); err != nil {
		logger.Error("invalid input", slog.String("error", err.Error()))
		return Result{Kind: ResultInvalidInput, Err: err}
	}

	if err := i.prepareDir(req.Output); err != nil {
		logger.Error("failed to prepare output directory", slog.String("error", err.Error()))
		return Result{Kind: ResultOutputDirCreationFailed, Err: err}
	}

	spec := i.Command(req)
	logger.Info("executing ffmpeg", slog.String("command", spec.String()))

	ffmpegLog := logger.With(slog.String("source", "ffmpeg"))
	err := i.runner.Run(ctx, spec, func(line string) {
		ffmpegLog.Info(line)
	})

	res := resultFromRunError(req.Output, err)
	switch res.Kind {
	case ResultSuccess:
		logger.Info("video overlay complete")
	case ResultProcessExitedNonZero:
		logger.Error("ffmpeg failed", slog.Int("exit_code", res.ExitCode))
	default:
		logger.Error("ffmpeg did not complete",
			slog.String("result", res.Kind.String()),
			slog.String("error", res.Err.Error()),
		)
	}
	return res
}

func resultFromRunError(output string, err error) Result {
	if err == nil {
		return Result{Kind: ResultSuccess, OutputPath: output}
	}

	var exitErr *ExitError
	switch {
	case errors.Is(err, ErrProcessInterrupted):
		return Result{Kind: ResultProcessInterrupted, Err: err}
	case errors.Is(err, ErrProcessSpawn):
		return Result{Kind: ResultProcessSpawnFailed, Err: err}
	case errors.As(err, &exitErr):
		return Result{Kind: ResultProcessExitedNonZero, ExitCode: exitErr.Code, Err: err}
	default:
		return Result{Kind: ResultProcessExitedNonZero, ExitCode: -1, Err: err}
	}
}
