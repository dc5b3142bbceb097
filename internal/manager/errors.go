package manager

import "errors"

var (
	// ErrBusy is returned when an installer operation is already running.
	ErrBusy = errors.New("installer operation already in progress")
	// ErrNotInstalled is returned when the backend is not installed.
	ErrNotInstalled = errors.New("codewind is not installed")
	// ErrStatusUnknown is returned when the install status cannot be determined.
	ErrStatusUnknown = errors.New("codewind install status is unknown")
	// ErrConnectionFailed is returned when the local connection could not be created.
	ErrConnectionFailed = errors.New("could not connect to the local codewind backend")
	// ErrNoInstaller is returned for operations when no installer is configured.
	ErrNoInstaller = errors.New("no installer configured")
)

// unknownOperationError signals an operation name that RunOperation does not know.
type unknownOperationError struct{ op string }

func (e unknownOperationError) Error() string { return "unknown installer operation: " + e.op }

// IsUnknownOperation reports whether err names an unsupported operation.
func IsUnknownOperation(err error) bool {
	var e unknownOperationError
	return errors.As(err, &e)
}

// IsBusy reports whether err indicates an operation is already running.
func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }

// IsNotInstalled reports whether err indicates the backend is not installed.
func IsNotInstalled(err error) bool { return errors.Is(err, ErrNotInstalled) }

// IsUnavailable reports whether err means the backend state is unknown or unreachable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStatusUnknown) || errors.Is(err, ErrConnectionFailed)
}
