package media

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for overlay operations.
var (
	// ErrInvalidRequest is returned when a request is missing one of its paths.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInputMissing is returned when an input file does not exist.
	ErrInputMissing = errors.New("input file not found")
	// ErrInputUnreadable is returned when an input file exists but cannot be opened for reading.
	ErrInputUnreadable = errors.New("input file not readable")
	// ErrInputNotRegular is returned when an input path names a directory or other non-regular file.
	ErrInputNotRegular = errors.New("input is not a regular file")
	// ErrOutputDirCreation is returned when the output directory cannot be created.
	ErrOutputDirCreation = errors.New("create output directory")
	// ErrProcessSpawn is returned when ffmpeg cannot be started.
	ErrProcessSpawn = errors.New("ffmpeg could not be started")
	// ErrProcessExitedNonZero is returned when ffmpeg ran but exited with a nonzero code.
	ErrProcessExitedNonZero = errors.New("ffmpeg exited with nonzero status")
	// ErrProcessInterrupted is returned when the wait for ffmpeg was cancelled.
	ErrProcessInterrupted = errors.New("ffmpeg wait interrupted")
)

// InputRole identifies which of the two inputs an error refers to.
type InputRole string

const (
	RolePrimary   InputRole = "primary"
	RoleSecondary InputRole = "secondary"
)

// InputError describes why an input path was rejected.
type InputError struct {
	Role InputRole
	Path string
	// Reason is one of ErrInputMissing, ErrInputUnreadable or ErrInputNotRegular.
	Reason error
	// Err is the underlying filesystem error, if any.
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s video %s: %v: %v", e.Role, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s video %s: %v", e.Role, e.Path, e.Reason)
}

func (e *InputError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// SpawnError is returned when the ffmpeg binary could not be launched.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrProcessSpawn, e.Err}
}

// ExitError represents an ffmpeg run that finished with a nonzero exit code.
type ExitError struct {
	Args []string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d\nargs: %s", e.Code, strings.Join(e.Args, " "))
}

func (e *ExitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcessExitedNonZero}
	}
	return []error{ErrProcessExitedNonZero, e.Err}
}

// InterruptedError is returned when the caller's context ended before ffmpeg exited.
// The partially written output file, if any, is left in place.
type InterruptedError struct {
	Cause error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("ffmpeg cancelled: %v", e.Cause)
}

func (e *InterruptedError) Unwrap() []error {
	return []error{ErrProcessInterrupted, e.Cause}
}
