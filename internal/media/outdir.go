package media

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareOutputDir creates the parent directory of output, including any
// missing ancestors. A bare filename has no parent to create.
func PrepareOutputDir(output string) error {
	dir := filepath.Dir(output)
	if dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputDirCreation, dir, err)
	}
	return nil
}
