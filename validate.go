// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"errors"
	"time"

	"github.com/bassosimone/runtimex"
)

// NewValidatePublisher returns a new [*ValidatePublisher].
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The upstream argument is the publisher whose elements are validated.
//
// The v argument is the [Validator] applied to each inbound element.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewValidatePublisher[T any](cfg *Config, upstream Publisher[T], v Validator[T], logger SLogger) *ValidatePublisher[T] {
	return &ValidatePublisher[T]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
		Upstream:      upstream,
		Validator:     v,
	}
}

// ValidatePublisher validates each upstream element and publishes an
// [Optional] per element: present for accepted values, absent for
// rejected ones. The output stream never fails.
//
// The first rejection marks the subscription dead for future validation:
// the absent value is delivered once, after which subsequent inbound
// elements are swallowed at zero demand. The downstream subscriber stays
// attached and the upstream is not cancelled.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Subscribe].
type ValidatePublisher[T any] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewValidatePublisher] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewValidatePublisher] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewValidatePublisher] from [Config.TimeNow].
	TimeNow func() time.Time

	// Upstream is the publisher whose elements are validated.
	//
	// Set by [NewValidatePublisher] to the user-provided publisher.
	Upstream Publisher[T]

	// Validator checks each inbound element.
	//
	// Set by [NewValidatePublisher] to the user-provided validator.
	Validator Validator[T]
}

var _ Publisher[Optional[string]] = &ValidatePublisher[string]{}

// Subscribe implements [Publisher]. It creates the operator subscription
// and attaches it to the upstream publisher; the upstream responds by
// attaching its demand handle, which in turn completes the downstream
// attachment.
func (p *ValidatePublisher[T]) Subscribe(sub Subscriber[Optional[T]]) {
	runtimex.Assert(p.Validator != nil)
	state := &validateSubscription[T]{
		coreSubscription: coreSubscription[T, Optional[T]]{
			downstream:    sub,
			errClassifier: p.ErrClassifier,
			logger:        p.Logger,
			operator:      "validate",
			spanID:        NewSpanID(),
			timeNow:       p.TimeNow,
			upstream:      nil,
			validator:     p.Validator,
		},
	}
	state.logSubscribe()
	p.Upstream.Subscribe(state)
}

// validateSubscription is the nullable-pass subscription: it is the
// subscriber attached to the upstream and, simultaneously, the demand
// handle given to the downstream subscriber.
type validateSubscription[T any] struct {
	coreSubscription[T, Optional[T]]
}

var _ Subscriber[string] = &validateSubscription[string]{}
var _ Subscription = &validateSubscription[string]{}

// ReceiveSubscription implements [Subscriber].
func (s *validateSubscription[T]) ReceiveSubscription(up Subscription) {
	s.upstream = up
	s.downstream.ReceiveSubscription(s)
}

// Receive implements [Subscriber]. Accepted elements are forwarded as
// present optionals; the first rejection is forwarded as an absent
// optional and clears the validator only.
func (s *validateSubscription[T]) Receive(value T) Demand {
	t0 := s.timeNow()
	s.logValidateStart(t0)
	out, ok, err := s.outcome(value)
	s.logValidateDone(t0, err)

	if errors.Is(err, errAlreadyTerminated) {
		return DemandNone
	}
	if err != nil || !ok {
		downstream := s.downstream
		s.validator = nil
		downstream.Receive(None[T]())
		return DemandNone
	}
	return s.downstream.Receive(Some(out))
}

// ReceiveCompletion implements [Subscriber].
func (s *validateSubscription[T]) ReceiveCompletion(c Completion) {
	s.forwardCompletion(c)
}
