// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"time"

	"github.com/bassosimone/runtimex"
)

// NewCompactValidatePublisher returns a new [*CompactValidatePublisher].
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The upstream argument is the publisher whose elements are validated.
//
// The v argument is the [Validator] applied to each inbound element.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewCompactValidatePublisher[T any](cfg *Config, upstream Publisher[T], v Validator[T], logger SLogger) *CompactValidatePublisher[T] {
	return &CompactValidatePublisher[T]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
		Upstream:      upstream,
		Validator:     v,
	}
}

// CompactValidatePublisher validates each upstream element and republishes
// exactly the accepted subsequence, in original order. Rejected elements
// are invisible to the downstream subscriber: no absent value, no failure
// marker, no terminal signal.
//
// A swallowed element returns zero additional demand upstream; callers
// needing continuous filtering must grant new demand themselves.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Subscribe].
type CompactValidatePublisher[T any] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewCompactValidatePublisher] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewCompactValidatePublisher] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewCompactValidatePublisher] from [Config.TimeNow].
	TimeNow func() time.Time

	// Upstream is the publisher whose elements are validated.
	//
	// Set by [NewCompactValidatePublisher] to the user-provided publisher.
	Upstream Publisher[T]

	// Validator checks each inbound element.
	//
	// Set by [NewCompactValidatePublisher] to the user-provided validator.
	Validator Validator[T]
}

var _ Publisher[string] = &CompactValidatePublisher[string]{}

// Subscribe implements [Publisher].
func (p *CompactValidatePublisher[T]) Subscribe(sub Subscriber[T]) {
	runtimex.Assert(p.Validator != nil)
	state := &compactValidateSubscription[T]{
		coreSubscription: coreSubscription[T, T]{
			downstream:    sub,
			errClassifier: p.ErrClassifier,
			logger:        p.Logger,
			operator:      "compactValidate",
			spanID:        NewSpanID(),
			timeNow:       p.TimeNow,
			upstream:      nil,
			validator:     p.Validator,
		},
	}
	state.logSubscribe()
	p.Upstream.Subscribe(state)
}

// compactValidateSubscription is the filtering subscription.
type compactValidateSubscription[T any] struct {
	coreSubscription[T, T]
}

var _ Subscriber[string] = &compactValidateSubscription[string]{}
var _ Subscription = &compactValidateSubscription[string]{}

// ReceiveSubscription implements [Subscriber].
func (s *compactValidateSubscription[T]) ReceiveSubscription(up Subscription) {
	s.upstream = up
	s.downstream.ReceiveSubscription(s)
}

// Receive implements [Subscriber]. Rejected and accepted-but-absent
// elements are consumed without producing output.
func (s *compactValidateSubscription[T]) Receive(value T) Demand {
	t0 := s.timeNow()
	s.logValidateStart(t0)
	out, ok, err := s.outcome(value)
	s.logValidateDone(t0, err)

	if err != nil || !ok {
		return DemandNone
	}
	return s.downstream.Receive(out)
}

// ReceiveCompletion implements [Subscriber].
func (s *compactValidateSubscription[T]) ReceiveCompletion(c Completion) {
	s.forwardCompletion(c)
}
