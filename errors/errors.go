// Package errors provides standardized error handling patterns for the
// runtime. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping across the system.
package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/TTCRadio/gnuradio/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary conditions that may clear on retry
	ErrorTransient ErrorClass = iota
	// ErrorConstruction represents failures while instantiating a block or
	// wiring the graph; never retried
	ErrorConstruction
	// ErrorUsage represents programming errors in a block (bad tag offset,
	// unknown port) reported back to the caller
	ErrorUsage
	// ErrorFatal represents unrecoverable failures that stop the graph run
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorConstruction:
		return "construction"
	case ErrorUsage:
		return "usage"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Lifecycle errors
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
	ErrAlreadyStopped = errors.New("already stopped")
	ErrShuttingDown   = errors.New("shutting down")

	// Signature and wiring errors
	ErrStreamCountOutOfRange = errors.New("stream count outside signature bounds")
	ErrElementSizeMismatch   = errors.New("element size mismatch")
	ErrStreamNotConnected    = errors.New("stream not connected")
	ErrStreamAlreadyWired    = errors.New("stream already wired")

	// Message port errors
	ErrDuplicatePort = errors.New("port already registered")
	ErrPortNotFound  = errors.New("port not registered")
	ErrPortDirection = errors.New("wrong port direction")
	ErrInboxFull     = errors.New("message inbox full")
	ErrHandlerNotSet = errors.New("no handler bound to port")

	// Tag errors
	ErrTagOutOfRange = errors.New("tag offset outside produced range")

	// Buffer errors
	ErrBufferClosed   = errors.New("buffer closed")
	ErrPartialElement = errors.New("byte count not a multiple of element size")

	// Registry errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownFactory   = errors.New("unknown block factory")
	ErrDuplicateFactory = errors.New("factory already registered")

	// Execution errors
	ErrWorkPanicked = errors.New("work invocation panicked")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may clear on retry
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrInboxFull)
}

// IsConstruction checks if an error occurred while building a block or graph
func IsConstruction(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConstruction
	}

	return errors.Is(err, ErrStreamCountOutOfRange) ||
		errors.Is(err, ErrDuplicatePort) ||
		errors.Is(err, ErrDuplicateFactory) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsUsage checks if an error is a programming error in a block
func IsUsage(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUsage
	}

	return errors.Is(err, ErrTagOutOfRange) ||
		errors.Is(err, ErrPortNotFound) ||
		errors.Is(err, ErrPortDirection)
}

// IsFatal checks if an error is fatal and should stop the graph run
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrWorkPanicked) ||
		errors.Is(err, ErrBufferClosed)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsConstruction(err) {
		return ErrorConstruction
	}
	if IsUsage(err) {
		return ErrorUsage
	}
	if IsFatal(err) {
		return ErrorFatal
	}

	// Default to transient for unknown errors
	return ErrorTransient
}

// newClassified creates a new classified error
// This is an internal helper - use the WrapX functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConstruction wraps an error as a construction failure with context
func WrapConstruction(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConstruction, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUsage wraps an error as a block programming error with context
func WrapUsage(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUsage, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// BackoffConfig defines the yield policy applied when a block makes no
// progress. The scheduler widens the delay between passes until new input
// or output capacity arrives.
type BackoffConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultBackoffConfig returns the default starvation yield policy
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay:  100 * time.Microsecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// ToRetryConfig converts the yield policy to the retry framework's Config
// type so the scheduler can reuse its jittered delay calculation.
// MaxAttempts is left unbounded: persistent zero progress is a liveness
// condition handled by yielding, never failure propagation.
func (bc BackoffConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  0,
		InitialDelay: bc.InitialDelay,
		MaxDelay:     bc.MaxDelay,
		Multiplier:   bc.BackoffFactor,
		AddJitter:    true,
	}
}
