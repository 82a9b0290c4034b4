package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// Process exit codes. Scripts branch on these, so they never change meaning.
const (
	ExitCodeSuccess     = 0
	ExitCodeGeneric     = 1
	ExitCodeUsage       = 2
	ExitCodeNotFound    = 3
	ExitCodeConflict    = 4
	ExitCodeUnavailable = 5
	ExitCodeIO          = 6
)

// ExitError carries the exit code a failed command should terminate with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}

	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}

	return e.Code
}

func asExitError(code int, err error) error {
	if err == nil {
		return nil
	}

	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	return &ExitError{Code: code, Err: err}
}

// mapCommandError assigns an exit code from the domain error taxonomy.
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}

	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	var pathErr *fs.PathError

	switch {
	case domain.IsNotFound(err), domain.IsIndexOutOfRange(err):
		return asExitError(ExitCodeNotFound, err)
	case domain.IsValidation(err):
		return asExitError(ExitCodeUsage, err)
	case domain.IsConflict(err):
		return asExitError(ExitCodeConflict, err)
	case domain.IsUnavailable(err):
		return asExitError(ExitCodeUnavailable, err)
	case domain.IsStorage(err), errors.As(err, &pathErr), errors.Is(err, os.ErrNotExist):
		return asExitError(ExitCodeIO, err)
	default:
		return asExitError(ExitCodeGeneric, err)
	}
}

func usageErrorf(format string, args ...any) error {
	return &ExitError{
		Code: ExitCodeUsage,
		Err:  fmt.Errorf(format, args...),
	}
}
