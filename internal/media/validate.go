package media

import (
	"errors"
	"io/fs"
	"os"
)

// ValidateInputs checks that both inputs name existing, readable regular files.
// The primary input is checked first and the first failure is returned as an
// *InputError.
//
// The check is not atomic with ffmpeg's own open: a file removed in between
// surfaces later as a nonzero ffmpeg exit.
func ValidateInputs(primary, secondary string) error {
	if err := checkReadable(RolePrimary, primary); err != nil {
		return err
	}
	return checkReadable(RoleSecondary, secondary)
}

func checkReadable(role InputRole, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &InputError{Role: role, Path: path, Reason: ErrInputMissing}
		}
		return &InputError{Role: role, Path: path, Reason: ErrInputUnreadable, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &InputError{Role: role, Path: path, Reason: ErrInputNotRegular}
	}

	f, err := os.Open(path) // #nosec G304 - path is supplied by the operator
	if err != nil {
		return &InputError{Role: role, Path: path, Reason: ErrInputUnreadable, Err: err}
	}
	_ = f.Close()
	return nil
}
