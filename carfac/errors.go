// SPDX-License-Identifier: EPL-2.0

package carfac

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExecutableNotFound = errors.New("carfac executable not found")
	ErrInvalidRequest     = errors.New("invalid carfac request")
	ErrNoOutput           = errors.New("carfac produced no output file")
	ErrUnknownCapture     = errors.New("unknown output capture mode")
)

// ExitError reports a non-zero exit status of the executable.
type ExitError struct {
	Path   string
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Path, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }
