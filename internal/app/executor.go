package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

// Multi-step operations run as Validate → Perform → Verify → Archive →
// Respond. Nothing is persisted until Verify has accepted the result, so a
// failing dependency cannot leave half-applied state behind.

// ExecutionStep names a step of an Operation.
type ExecutionStep string

// Operation steps, in execution order.
const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Cause)
}

// Unwrap returns the cause for errors.Is/As.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation holds the functions for each step. Nil steps are skipped and
// pass the zero value on.
type Operation[I, P, V, O any] struct {
	// Name is attached to every log line as "operation".
	Name string

	// OnStep, if set, is called before each step that will run.
	OnStep func(ExecutionStep)

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Executor runs Operations with per-step logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an Executor. The context logger takes precedence over
// logger when one is attached.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Execute runs op against input. The first failing step aborts the run and
// is reported as an *ExecutionError.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	logger := exec.logger
	if logging.HasLogger(ctx) {
		logger = logging.FromContext(ctx)
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		if err := runStep(ctx, logger, op.OnStep, StepValidate, func() error { return op.Validate(ctx, input) }); err != nil {
			return zero, err
		}
	}

	var performed P

	if op.Perform != nil {
		if err := runStep(ctx, logger, op.OnStep, StepPerform, func() (err error) {
			performed, err = op.Perform(ctx, input)
			return err
		}); err != nil {
			return zero, err
		}
	}

	var verified V

	if op.Verify != nil {
		if err := runStep(ctx, logger, op.OnStep, StepVerify, func() (err error) {
			verified, err = op.Verify(ctx, input, performed)
			return err
		}); err != nil {
			return zero, err
		}
	}

	if op.Archive != nil {
		if err := runStep(ctx, logger, op.OnStep, StepArchive, func() error { return op.Archive(ctx, input, verified) }); err != nil {
			return zero, err
		}
	}

	var result O

	if op.Respond != nil {
		if err := runStep(ctx, logger, op.OnStep, StepRespond, func() (err error) {
			result, err = op.Respond(ctx, input, verified)
			return err
		}); err != nil {
			return zero, err
		}
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

func runStep(ctx context.Context, logger *slog.Logger, onStep func(ExecutionStep), step ExecutionStep, fn func() error) error {
	if onStep != nil {
		onStep(step)
	}

	logger.Log(ctx, logging.LevelTrace, "step started", slog.String("step", string(step)))

	if err := fn(); err != nil {
		level := slog.LevelError
		if step == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "step failed", slog.String("step", string(step)), slog.Any("error", err))

		return &ExecutionError{Step: step, Cause: err}
	}

	return nil
}

// GetExecutionStep returns the step an *ExecutionError in err's chain failed in.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
