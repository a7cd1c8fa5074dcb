// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import "math"

// Demand is the number of additional elements a [Subscriber] is willing
// to accept. A publisher must not push more elements than the outstanding
// demand before a new request arrives.
type Demand uint64

const (
	// DemandNone grants no additional elements.
	DemandNone Demand = 0

	// DemandUnlimited removes the demand bound for the subscription.
	DemandUnlimited Demand = math.MaxUint64
)

// Completion is the one-time terminal signal of a stream. The zero value
// means normal completion; a non-nil Err means the stream failed. After a
// completion has been delivered no further elements may be pushed.
type Completion struct {
	// Err is the failure that terminated the stream, or nil on
	// normal completion.
	Err error
}

// Finished returns a [Completion] representing normal completion.
func Finished() Completion {
	return Completion{}
}

// Failed returns a [Completion] representing a stream failure.
func Failed(err error) Completion {
	return Completion{Err: err}
}

// Failed reports whether the completion represents a failure.
func (c Completion) Failed() bool {
	return c.Err != nil
}

// Subscription is the demand handle connecting a [Subscriber] back to the
// publisher it is attached to. The subscriber uses it to grant demand and
// to cancel the relationship.
//
// Cancellation is synchronous: after Cancel returns, no further elements
// will be accepted by the subscription.
type Subscription interface {
	// Request grants n additional elements of demand.
	Request(n Demand)

	// Cancel terminates the subscription. Safe to call more than once.
	Cancel()
}

// Subscriber is the consumer side of a demand-regulated stream.
//
// The protocol is strictly sequential for a single subscription: calls to
// Receive never overlap and a publisher must not push beyond the
// outstanding demand.
type Subscriber[T any] interface {
	// ReceiveSubscription attaches the demand handle for this
	// relationship. Called exactly once, before any element.
	ReceiveSubscription(s Subscription)

	// Receive delivers one element and returns the additional demand
	// the subscriber grants.
	Receive(value T) Demand

	// ReceiveCompletion delivers the terminal signal.
	ReceiveCompletion(c Completion)
}

// Publisher is the producer side of a demand-regulated stream.
type Publisher[T any] interface {
	// Subscribe attaches a subscriber to this publisher.
	Subscribe(sub Subscriber[T])
}

// Subject is a publisher with an imperative push-in surface. It is the
// contract this package requires from the raw sink wrapped by
// [ValidatedSubject]; the implementation lives in the surrounding stream
// framework.
type Subject[T any] interface {
	Publisher[T]

	// SendSubscription attaches an upstream demand handle, allowing a
	// subject to be used as the terminal stage of a stream.
	SendSubscription(s Subscription)

	// Send pushes one value into the subject.
	Send(value T)

	// SendCompletion pushes the terminal signal into the subject.
	SendCompletion(c Completion)
}
