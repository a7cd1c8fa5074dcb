// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bassosimone/slogstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// newTestValidator returns the "not-empty AND length>=3" string validator
// used across the operator tests.
func newTestValidator() Validator[string] {
	return NewTryValidator("notEmptyMin3", func(value string) error {
		if value == "" {
			return errors.New("must not be empty")
		}
		if len(value) < 3 {
			return errors.New("must be at least 3 characters")
		}
		return nil
	})
}

// funcStubValidator adapts a raw triple-returning function to [Validator],
// for exercising outcomes the public adapters cannot produce (such as
// accepted-with-absent-value).
type funcStubValidator[T any] struct {
	ValidateFunc func(value T) (T, bool, error)
}

var _ Validator[string] = &funcStubValidator[string]{}

func (v *funcStubValidator[T]) Validate(value T) (T, bool, error) {
	return v.ValidateFunc(value)
}

// recordingSubscriber records everything it observes. Receive returns the
// configured demand so tests can verify demand propagation.
type recordingSubscriber[T any] struct {
	// demand is returned by every Receive call.
	demand Demand

	// subscription is the demand handle received on attachment.
	subscription Subscription

	// values are the elements received, in order.
	values []T

	// completions are the terminal signals received.
	completions []Completion
}

var _ Subscriber[string] = &recordingSubscriber[string]{}

func (s *recordingSubscriber[T]) ReceiveSubscription(sub Subscription) {
	s.subscription = sub
}

func (s *recordingSubscriber[T]) Receive(value T) Demand {
	s.values = append(s.values, value)
	return s.demand
}

func (s *recordingSubscriber[T]) ReceiveCompletion(c Completion) {
	s.completions = append(s.completions, c)
}

// recordingSubscription records demand requests and cancellations.
type recordingSubscription struct {
	// requests are the demands relayed to this handle, in order.
	requests []Demand

	// cancels counts how many times Cancel was invoked.
	cancels int
}

var _ Subscription = &recordingSubscription{}

func (s *recordingSubscription) Request(n Demand) {
	s.requests = append(s.requests, n)
}

func (s *recordingSubscription) Cancel() {
	s.cancels++
}

// newTestUpstream returns a minimal demand-regulated source for driving
// operator tests. Subscribing attaches the recording handle; push and
// complete deliver signals to the attached subscriber synchronously.
func newTestUpstream[T any]() *testUpstream[T] {
	return &testUpstream[T]{handle: &recordingSubscription{}}
}

type testUpstream[T any] struct {
	handle     *recordingSubscription
	subscriber Subscriber[T]
}

var _ Publisher[string] = &testUpstream[string]{}

func (u *testUpstream[T]) Subscribe(sub Subscriber[T]) {
	u.subscriber = sub
	sub.ReceiveSubscription(u.handle)
}

func (u *testUpstream[T]) push(value T) Demand {
	return u.subscriber.Receive(value)
}

func (u *testUpstream[T]) complete(c Completion) {
	u.subscriber.ReceiveCompletion(c)
}

// recordingSubject is a minimal passthrough [Subject]: it records every
// signal and forwards pushed values to the attached subscriber, which is
// enough to observe what crosses a [ValidatedSubject].
type recordingSubject[T any] struct {
	completions   []Completion
	sends         []T
	subscriber    Subscriber[T]
	subscriptions []Subscription
}

var _ Subject[string] = &recordingSubject[string]{}

func (s *recordingSubject[T]) Subscribe(sub Subscriber[T]) {
	s.subscriber = sub
}

func (s *recordingSubject[T]) SendSubscription(sub Subscription) {
	s.subscriptions = append(s.subscriptions, sub)
}

func (s *recordingSubject[T]) Send(value T) {
	s.sends = append(s.sends, value)
	if s.subscriber != nil {
		s.subscriber.Receive(value)
	}
}

func (s *recordingSubject[T]) SendCompletion(c Completion) {
	s.completions = append(s.completions, c)
}
