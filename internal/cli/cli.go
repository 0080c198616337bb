package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/specialistvlad/rcctl/internal/config"
)

// Exit codes.
const (
	ExitRuntime = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks a malformed invocation.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// Execute runs the command line args and returns nil or an *ExitError.
// Results are written to outW; logs and help for failed invocations to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	slog.Debug("CLI parser started.", "args", len(args))
	root := newRootCmd(outW, errW, ".env")
	if args == nil {
		args = []string{}
	}

	if cmd, _, err := root.Find(args); err == nil {
		args = liftNegativeNumbers(cmd, args)
	}
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		return exitError(err)
	}
	return nil
}

// exitError maps err to the process exit code it deserves.
func exitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var usage *usageError
	switch {
	case errors.As(err, &usage),
		errors.Is(err, config.ErrMissingAPIKey),
		errors.Is(err, config.ErrMissingProjectID),
		errors.Is(err, config.ErrUnknownProfile),
		errors.Is(err, config.ErrInvalidSetting):
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	default:
		return &ExitError{Code: ExitRuntime, Message: err.Error()}
	}
}
