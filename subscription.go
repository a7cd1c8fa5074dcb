// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"errors"
	"log/slog"
	"time"
)

// errAlreadyTerminated signals that an operation was attempted on a
// subscription that is already complete. It never crosses a component
// boundary: every capability that can encounter it converts it into
// "no-op, zero demand".
var errAlreadyTerminated = errors.New("vpipe: subscription already terminated")

// coreSubscription holds the three mutable references every validating
// operator needs, plus the observability collaborators. It is owned by
// exactly one operator subscription; upstream and downstream hold a
// reference to the owning subscription but never mutate these fields
// directly.
//
// In is the upstream element type; Out is the element type delivered to
// the downstream subscriber.
type coreSubscription[In, Out any] struct {
	// validator checks inbound elements. Cleared on termination;
	// absence marks the subscription complete.
	validator Validator[In]

	// downstream is the attached subscriber. Cleared together with
	// validator on cancellation and terminal failure.
	downstream Subscriber[Out]

	// upstream is the demand handle of the wrapped publisher. Absent
	// until the upstream attaches it.
	upstream Subscription

	errClassifier ErrClassifier
	logger        SLogger
	operator      string
	spanID        string
	timeNow       func() time.Time
}

// completed reports whether the subscription is complete. The downstream
// subscriber and the validator are always cleared together, so observing
// either one absent means the relationship is dead.
func (s *coreSubscription[In, Out]) completed() bool {
	return s.downstream == nil || s.validator == nil
}

// clear drops all three references together, satisfying the rule that a
// half-cancelled state is never observable.
func (s *coreSubscription[In, Out]) clear() {
	s.validator = nil
	s.downstream = nil
	s.upstream = nil
}

// Request implements [Subscription]. Demand is relayed upstream
// unchanged, without accounting or clamping; once the subscription is
// complete the request is a no-op.
func (s *coreSubscription[In, Out]) Request(n Demand) {
	if s.completed() || s.upstream == nil {
		return
	}
	s.upstream.Request(n)
}

// Cancel implements [Subscription]. It cancels the upstream handle if
// present and then clears every reference. Calling Cancel on an already
// cleared subscription is a safe no-op.
func (s *coreSubscription[In, Out]) Cancel() {
	if s.validator == nil && s.downstream == nil && s.upstream == nil {
		return
	}
	s.logCancel()
	if s.upstream != nil {
		s.upstream.Cancel()
	}
	s.clear()
}

// outcome runs the live validator against value. It fails with
// [errAlreadyTerminated] when the subscription is complete; any validator
// error is normalized into a [*ValidationError].
func (s *coreSubscription[In, Out]) outcome(value In) (In, bool, error) {
	if s.completed() {
		var zero In
		return zero, false, errAlreadyTerminated
	}
	out, ok, err := s.validator.Validate(value)
	if err != nil {
		var zero In
		return zero, false, newValidationError(err)
	}
	return out, ok, nil
}

// forwardCompletion delivers the terminal signal downstream at most once
// and clears the subscription. Completions arriving after termination are
// swallowed.
func (s *coreSubscription[In, Out]) forwardCompletion(c Completion) {
	if s.completed() {
		return
	}
	s.logCompletion(c)
	downstream := s.downstream
	s.clear()
	downstream.ReceiveCompletion(c)
}

func (s *coreSubscription[In, Out]) logSubscribe() {
	s.logger.Info(
		"subscribe",
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}

func (s *coreSubscription[In, Out]) logCancel() {
	s.logger.Info(
		"cancel",
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}

func (s *coreSubscription[In, Out]) logCompletion(c Completion) {
	s.logger.Info(
		"completion",
		slog.Any("err", c.Err),
		slog.String("errClass", s.errClassifier.Classify(c.Err)),
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}

func (s *coreSubscription[In, Out]) logValidateStart(t0 time.Time) {
	s.logger.Debug(
		"validateStart",
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", t0),
	)
}

func (s *coreSubscription[In, Out]) logValidateDone(t0 time.Time, err error) {
	s.logger.Debug(
		"validateDone",
		slog.Any("err", err),
		slog.String("errClass", s.errClassifier.Classify(err)),
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t0", t0),
		slog.Time("t", s.timeNow()),
	)
}

// logValidationFailed records a validation-driven termination, emitted by
// the error-propagating policy when a rejection becomes a terminal failure.
func (s *coreSubscription[In, Out]) logValidationFailed(err error) {
	s.logger.Info(
		"validationFailed",
		slog.Any("err", err),
		slog.String("errClass", s.errClassifier.Classify(err)),
		slog.String("operator", s.operator),
		slog.String("spanID", s.spanID),
		slog.Time("t", s.timeNow()),
	)
}
