// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"log/slog"
	"time"

	"github.com/bassosimone/runtimex"
)

// NewValidatedPublisher returns a new [*ValidatedPublisher].
//
// The given value is validated once, here, against the given validator;
// the stored outcome is what every subscriber will observe. This source
// never fails: a rejection is stored as an absent [Optional].
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewValidatedPublisher[T any](cfg *Config, value T, v Validator[T], logger SLogger) *ValidatedPublisher[T] {
	runtimex.Assert(v != nil)
	result := None[T]()
	if out, ok, err := v.Validate(value); err == nil && ok {
		result = Some(out)
	}
	return &ValidatedPublisher[T]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Result:        result,
		TimeNow:       cfg.TimeNow,
	}
}

// NewSelfValidatedPublisher returns a [*ValidatedPublisher] for a value
// type that carries its own validation rule via [Validatable], skipping
// explicit validator construction.
func NewSelfValidatedPublisher[T Validatable](cfg *Config, value T, logger SLogger) *ValidatedPublisher[T] {
	return NewValidatedPublisher(cfg, value, SelfValidator[T](), logger)
}

// ValidatedPublisher is a single-shot source publishing one precomputed
// [Optional]: present when the construction-time validation accepted the
// value, absent when it rejected it. It is the root of its chain — there
// is no upstream demand handle.
//
// On the first demand request with positive demand the stored result is
// delivered followed by normal completion, and the subscription clears
// itself; later requests are no-ops.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Subscribe].
type ValidatedPublisher[T any] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewValidatedPublisher] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewValidatedPublisher] to the user-provided logger.
	Logger SLogger

	// Result is the outcome computed at construction.
	//
	// Set by [NewValidatedPublisher] from the value and validator.
	Result Optional[T]

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewValidatedPublisher] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Publisher[Optional[string]] = &ValidatedPublisher[string]{}

// Subscribe implements [Publisher].
func (p *ValidatedPublisher[T]) Subscribe(sub Subscriber[Optional[T]]) {
	state := &validatedSubscription[Optional[T]]{
		downstream:    sub,
		errClassifier: p.ErrClassifier,
		hasResult:     true,
		logger:        p.Logger,
		operator:      "validated",
		result:        p.Result,
		spanID:        NewSpanID(),
		timeNow:       p.TimeNow,
	}
	state.logSubscribe()
	sub.ReceiveSubscription(state)
}

// NewTryValidatedPublisher returns a new [*TryValidatedPublisher].
//
// The given value is validated once, here, against the given validator.
// An accepted value is stored for delivery; a rejection is stored as a
// terminal failure carrying the normalized [*ValidationError].
//
// The cfg argument contains the common configuration for vpipe primitives.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTryValidatedPublisher[T any](cfg *Config, value T, v Validator[T], logger SLogger) *TryValidatedPublisher[T] {
	runtimex.Assert(v != nil)
	p := &TryValidatedPublisher[T]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
	out, ok, err := v.Validate(value)
	switch {
	case err != nil:
		p.Failure = newValidationError(err)
	case ok:
		p.HasResult = true
		p.Result = out
	}
	return p
}

// NewTrySelfValidatedPublisher returns a [*TryValidatedPublisher] for a
// value type that carries its own validation rule via [Validatable].
func NewTrySelfValidatedPublisher[T Validatable](cfg *Config, value T, logger SLogger) *TryValidatedPublisher[T] {
	return NewTryValidatedPublisher(cfg, value, SelfValidator[T](), logger)
}

// TryValidatedPublisher is a single-shot source publishing one
// precomputed result: the accepted value followed by normal completion,
// or a single terminal failure when the construction-time validation
// rejected the value.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Subscribe].
type TryValidatedPublisher[T any] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewTryValidatedPublisher] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Failure is the stored terminal failure, or nil when the value
	// was accepted.
	//
	// Set by [NewTryValidatedPublisher] from the validation outcome.
	Failure error

	// HasResult indicates whether Result holds a value to deliver.
	// False when the value was rejected or accepted without a value
	// to forward.
	//
	// Set by [NewTryValidatedPublisher] from the validation outcome.
	HasResult bool

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewTryValidatedPublisher] to the user-provided logger.
	Logger SLogger

	// Result is the accepted value, meaningful only when HasResult.
	//
	// Set by [NewTryValidatedPublisher] from the validation outcome.
	Result T

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewTryValidatedPublisher] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Publisher[string] = &TryValidatedPublisher[string]{}

// Subscribe implements [Publisher].
func (p *TryValidatedPublisher[T]) Subscribe(sub Subscriber[T]) {
	state := &validatedSubscription[T]{
		downstream:    sub,
		errClassifier: p.ErrClassifier,
		failure:       p.Failure,
		hasResult:     p.HasResult,
		logger:        p.Logger,
		operator:      "tryValidated",
		result:        p.Result,
		spanID:        NewSpanID(),
		timeNow:       p.TimeNow,
	}
	state.logSubscribe()
	sub.ReceiveSubscription(state)
}

// validatedSubscription delivers one stored result at the first positive
// demand request and then clears itself. It holds only the downstream
// reference and the precomputed outcome; there is no upstream handle and
// no live validator.
type validatedSubscription[Out any] struct {
	downstream Subscriber[Out]
	failure    error
	hasResult  bool
	result     Out

	errClassifier ErrClassifier
	logger        SLogger
	operator      string
	spanID        string
	timeNow       func() time.Time
}

var _ Subscription = &validatedSubscription[string]{}

// Request implements [Subscription]. The first request with positive
// demand delivers the stored result; requests after delivery or
// cancellation are no-ops.
func (s *validatedSubscription[Out]) Request(n Demand) {
	if n == DemandNone || s.downstream == nil {
		return
	}
	downstream := s.downstream
	s.downstream = nil
	if s.failure != nil {
		s.logDeliver(s.failure)
		downstream.ReceiveCompletion(Failed(s.failure))
		return
	}
	if s.hasResult {
		downstream.Receive(s.result)
	}
	s.logDeliver(nil)
	downstream.ReceiveCompletion(Finished())
}

// Cancel implements [Subscription]. Idempotent.
func (s *validatedSubscription[Out]) Cancel() {
	s.downstream = nil
}

func (s *validatedSubscription[Out]) logSubscribe() {
	s.logger.Info(
		"subscribe",
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}

func (s *validatedSubscription[Out]) logDeliver(err error) {
	s.logger.Info(
		"deliver",
		slog.Any("err", err),
		slog.String("errClass", s.errClassifier.Classify(err)),
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}
