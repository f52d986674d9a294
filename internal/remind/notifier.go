package remind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier delivers a reminder message to a user through an arbitrary
// channel (email, push, ...). Implementations live outside this core;
// the pipeline only needs the error classification below.
//
// Sends must tolerate duplicates: delivery is at-least-once, and the same
// reminder may be sent twice around lease expiries or restarts.
type Notifier interface {
	Send(ctx context.Context, recipient uuid.UUID, subject, body string) error
}

// NotifyErrorKind classifies a delivery failure.
type NotifyErrorKind string

const (
	// NotifyTransient marks a retryable failure (provider unavailable,
	// timeout). The job is redelivered while attempts remain.
	NotifyTransient NotifyErrorKind = "transient"

	// NotifyPermanent marks a deterministic failure (invalid recipient).
	// The job is dead-lettered immediately without burning retries.
	NotifyPermanent NotifyErrorKind = "permanent"
)

// NotifyError is the error type notifiers return to classify failures.
type NotifyError struct {
	Kind NotifyErrorKind
	Err  error
}

// Error implements the error interface for NotifyError.
func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NotifyError) Unwrap() error {
	return e.Err
}

// TransientNotifyError wraps err as a retryable delivery failure.
func TransientNotifyError(err error) *NotifyError {
	return &NotifyError{Kind: NotifyTransient, Err: err}
}

// PermanentNotifyError wraps err as a non-retryable delivery failure.
func PermanentNotifyError(err error) *NotifyError {
	return &NotifyError{Kind: NotifyPermanent, Err: err}
}

// IsPermanentNotifyError reports whether err is a permanent delivery
// failure. Anything else, including plain errors and context timeouts,
// is treated as transient.
func IsPermanentNotifyError(err error) bool {
	var notifyErr *NotifyError
	return errors.As(err, &notifyErr) && notifyErr.Kind == NotifyPermanent
}

// LogNotifier is a development Notifier that logs instead of delivering.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing through the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With("component", "log_notifier"),
	}
}

// Send implements Notifier by logging the message.
func (n *LogNotifier) Send(ctx context.Context, recipient uuid.UUID, subject, body string) error {
	n.logger.InfoContext(ctx, "reminder delivered",
		"recipient", recipient,
		"subject", subject,
		"body", body)
	return nil
}
