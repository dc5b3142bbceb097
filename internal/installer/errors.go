package installer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIO indicates the installer could not be run or exited abnormally.
	ErrIO = errors.New("installer io error")
	// ErrTimeout indicates the installer exceeded its deadline.
	ErrTimeout = errors.New("installer timed out")
	// ErrMalformed indicates the installer output was not recognized.
	ErrMalformed = errors.New("installer output not recognized")
)

// IsTimeout reports whether err was caused by an installer deadline.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsMalformed reports whether err was caused by unrecognized installer output.
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformed) }

// OperationError is returned when an installer operation exits non-zero.
type OperationError struct {
	Op     string
	Result Result
}

func (e *OperationError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Result.Stdout)
	}
	return fmt.Sprintf("installer %s failed with exit code %d: %s", e.Op, e.Result.ExitCode, msg)
}

// IsOperationFailed reports whether err is an *OperationError.
func IsOperationFailed(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
