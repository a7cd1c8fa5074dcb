// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"log/slog"
	"time"

	"github.com/bassosimone/runtimex"
)

// NewValidatedSubject returns a new [*ValidatedSubject] wrapping the
// given delegate.
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The delegate argument is the raw [Subject] receiving accepted values.
//
// The v argument is the [Validator] applied to each pushed value.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewValidatedSubject[T any](cfg *Config, delegate Subject[T], v Validator[T], logger SLogger) *ValidatedSubject[T] {
	runtimex.Assert(delegate != nil)
	return &ValidatedSubject[T]{
		Delegate:      delegate,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
		Validator:     v,
	}
}

// ValidatedSubject wraps a raw [Subject] and validates every pushed
// value: accepted values reach the delegate unchanged, rejected values
// are silently dropped without buffering and without any signal to
// attached subscribers. Completion, subscriber attachment, and upstream
// handle attachment are pure delegation — a validation failure never
// terminates the subject.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Send].
type ValidatedSubject[T any] struct {
	// Delegate is the wrapped raw subject.
	//
	// Set by [NewValidatedSubject] to the user-provided subject.
	Delegate Subject[T]

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewValidatedSubject] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewValidatedSubject] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewValidatedSubject] from [Config.TimeNow].
	TimeNow func() time.Time

	// Validator checks each pushed value.
	//
	// Set by [NewValidatedSubject] to the user-provided validator.
	Validator Validator[T]
}

var _ Subject[string] = &ValidatedSubject[string]{}

// Send implements [Subject]. Only accepted values with something to
// forward reach the delegate.
func (s *ValidatedSubject[T]) Send(value T) {
	t0 := s.TimeNow()
	s.logSendStart(t0)
	out, ok, err := s.Validator.Validate(value)
	if err != nil {
		err = newValidationError(err)
	}
	s.logSendDone(t0, err)
	if err != nil || !ok {
		return
	}
	s.Delegate.Send(out)
}

// SendCompletion implements [Subject] by pure delegation.
func (s *ValidatedSubject[T]) SendCompletion(c Completion) {
	s.Delegate.SendCompletion(c)
}

// SendSubscription implements [Subject] by pure delegation.
func (s *ValidatedSubject[T]) SendSubscription(sub Subscription) {
	s.Delegate.SendSubscription(sub)
}

// Subscribe implements [Publisher] by pure delegation.
func (s *ValidatedSubject[T]) Subscribe(sub Subscriber[T]) {
	s.Delegate.Subscribe(sub)
}

func (s *ValidatedSubject[T]) logSendStart(t0 time.Time) {
	s.Logger.Debug(
		"sendStart",
		slog.String("operator", "validatedSubject"),
		slog.Time("t", t0),
	)
}

func (s *ValidatedSubject[T]) logSendDone(t0 time.Time, err error) {
	s.Logger.Debug(
		"sendDone",
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.String("operator", "validatedSubject"),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
	)
}
