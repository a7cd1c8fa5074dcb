// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"errors"
	"time"

	"github.com/bassosimone/runtimex"
)

// NewTryValidatePublisher returns a new [*TryValidatePublisher].
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The upstream argument is the publisher whose elements are validated.
//
// The v argument is the [Validator] applied to each inbound element.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTryValidatePublisher[T any](cfg *Config, upstream Publisher[T], v Validator[T], logger SLogger) *TryValidatePublisher[T] {
	return &TryValidatePublisher[T]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
		Upstream:      upstream,
		Validator:     v,
	}
}

// TryValidatePublisher validates each upstream element and republishes
// accepted values unchanged. The first rejection terminates the stream:
// the downstream subscriber receives exactly one failed [Completion]
// carrying the normalized [*ValidationError] and no further elements.
//
// A validator may accept an element while declaring nothing to forward
// (the ok result of [Validator.Validate] is false); such elements are
// skipped at zero demand without terminating the stream.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Subscribe].
type TryValidatePublisher[T any] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewTryValidatePublisher] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewTryValidatePublisher] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewTryValidatePublisher] from [Config.TimeNow].
	TimeNow func() time.Time

	// Upstream is the publisher whose elements are validated.
	//
	// Set by [NewTryValidatePublisher] to the user-provided publisher.
	Upstream Publisher[T]

	// Validator checks each inbound element.
	//
	// Set by [NewTryValidatePublisher] to the user-provided validator.
	Validator Validator[T]
}

var _ Publisher[string] = &TryValidatePublisher[string]{}

// Subscribe implements [Publisher].
func (p *TryValidatePublisher[T]) Subscribe(sub Subscriber[T]) {
	runtimex.Assert(p.Validator != nil)
	state := &tryValidateSubscription[T]{
		coreSubscription: coreSubscription[T, T]{
			downstream:    sub,
			errClassifier: p.ErrClassifier,
			logger:        p.Logger,
			operator:      "tryValidate",
			spanID:        NewSpanID(),
			timeNow:       p.TimeNow,
			upstream:      nil,
			validator:     p.Validator,
		},
	}
	state.logSubscribe()
	p.Upstream.Subscribe(state)
}

// tryValidateSubscription is the error-propagating subscription.
type tryValidateSubscription[T any] struct {
	coreSubscription[T, T]
}

var _ Subscriber[string] = &tryValidateSubscription[string]{}
var _ Subscription = &tryValidateSubscription[string]{}

// ReceiveSubscription implements [Subscriber].
func (s *tryValidateSubscription[T]) ReceiveSubscription(up Subscription) {
	s.upstream = up
	s.downstream.ReceiveSubscription(s)
}

// Receive implements [Subscriber]. A rejection delivers a single failed
// completion and clears the validator, so every later signal
// short-circuits on the completeness predicate.
func (s *tryValidateSubscription[T]) Receive(value T) Demand {
	t0 := s.timeNow()
	s.logValidateStart(t0)
	out, ok, err := s.outcome(value)
	s.logValidateDone(t0, err)

	if errors.Is(err, errAlreadyTerminated) {
		return DemandNone
	}
	if err != nil {
		s.logValidationFailed(err)
		downstream := s.downstream
		s.validator = nil
		downstream.ReceiveCompletion(Failed(err))
		return DemandNone
	}
	if !ok {
		return DemandNone
	}
	return s.downstream.Receive(out)
}

// ReceiveCompletion implements [Subscriber].
func (s *tryValidateSubscription[T]) ReceiveCompletion(c Completion) {
	s.forwardCompletion(c)
}
