// SPDX-License-Identifier: GPL-3.0-or-later

// Package vpipe injects per-element validation into demand-regulated
// push streams.
//
// # Core Abstraction
//
// The package is built around the demand-regulated stream contracts:
//
//	type Publisher[T any] interface {
//		Subscribe(sub Subscriber[T])
//	}
//
//	type Subscriber[T any] interface {
//		ReceiveSubscription(s Subscription)
//		Receive(value T) Demand
//		ReceiveCompletion(c Completion)
//	}
//
//	type Subscription interface {
//		Request(n Demand)
//		Cancel()
//	}
//
// A subscriber grants [Demand], bounding how many elements a publisher may
// push before requesting more; Receive returns the additional demand the
// subscriber grants after each element. A [Completion] is a one-time
// terminal signal after which no further elements may be pushed. This
// package does not implement a stream engine: it provides validating
// operators that sit between an existing publisher and subscriber, plus
// two validating sources and a validating sink wrapper.
//
// # Available Primitives
//
// Validating operators (wrap an upstream [Publisher]):
//   - [ValidatePublisher]: invalid elements become an absent [Optional];
//     the stream never fails (created via [NewValidatePublisher])
//   - [TryValidatePublisher]: the first invalid element terminates the
//     stream with a failure (created via [NewTryValidatePublisher])
//   - [CompactValidatePublisher]: invalid elements are silently dropped
//     (created via [NewCompactValidatePublisher])
//
// Validating sources (no upstream; deliver one precomputed result):
//   - [ValidatedPublisher]: one value or one absent [Optional], then
//     completion (created via [NewValidatedPublisher])
//   - [TryValidatedPublisher]: one value, or a terminal failure
//     (created via [NewTryValidatedPublisher])
//
// Validating sink:
//   - [ValidatedSubject]: wraps a [Subject] and silently drops invalid
//     pushed values (created via [NewValidatedSubject])
//
// Validator construction:
//   - [NewValidator]: ad-hoc validator from a name and a value-or-absent closure
//   - [NewTryValidator]: ad-hoc validator from a name and an error-returning closure
//   - [NewDeferredValidator]: defer validator construction to first use
//   - [SelfValidator]: for value types implementing [Validatable]
//   - [NewStructValidator]: struct-tag validation via go-playground/validator
//
// # Subscription Lifecycle
//
// Each validating operator owns one subscription holding three references:
// the validator, the downstream subscriber, and the upstream demand handle.
// The subscription is complete as soon as either the downstream subscriber
// or the validator is absent; both are cleared together on cancellation and
// on terminal failure, so a half-cancelled state is never observable. Once
// complete, every capability short-circuits: demand requests are not
// relayed, inbound elements are swallowed at zero demand, and completions
// are not forwarded. Cancellation is synchronous and idempotent.
//
// Validation failures are normalized at the operator boundary: whatever
// error a validator returns is converted into a [*ValidationError] carrying
// only a textual description. The normalized failure is the only error that
// ever reaches a subscriber, and only through [TryValidatePublisher] and
// [TryValidatedPublisher].
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Set the Logger field to a
// custom [*slog.Logger] to enable logging.
//
// Primitives emit two kinds of structured log events:
//
//   - Lifecycle events (subscribe, cancel, completion, validation-driven
//     termination) at [slog.LevelInfo].
//
//   - Per-element events (validateStart/validateDone, sendStart/sendDone)
//     at [slog.LevelDebug], including timing, err, and errClass fields.
//
// Error classification is configurable via [ErrClassifier]; by default a
// no-op classifier is used. Every subscription carries a span ID generated
// with [NewSpanID] so that all events from one subscription can be
// correlated.
//
// # Concurrency Model
//
// The protocol is single-threaded, synchronous, and cooperative: every
// operation executes entirely within the call stack of the triggering
// event (a demand request or an inbound push) and returns before the next
// event is processed. A source must not push more elements than the
// outstanding demand and must not push re-entrantly while a previous push
// is still executing. Because there is no concurrent mutation, this
// package uses no locks; violating the single-threaded assumption is a
// caller error, not a condition this package defends against.
//
// # Design Boundaries
//
// This package intentionally provides only per-element validation. The
// following are out of scope and should be implemented by higher-level
// packages:
//
//   - General-purpose stream processing (buffering, windowing)
//   - Retry and backoff logic
//   - Multi-consumer fan-out
//   - The stream engine itself (sources, schedulers)
//
// These concerns introduce state beyond the single subscription, which
// would compromise the locality of the per-element decision.
package vpipe
