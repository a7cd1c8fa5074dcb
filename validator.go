// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

// Validator checks one candidate value.
//
// Validate returns (value, true, nil) when the value is accepted and
// should be forwarded, (zero, false, nil) when the value is accepted but
// there is nothing to forward (only [TryValidatePublisher] distinguishes
// this case), and a non-nil error when the value is rejected.
//
// Validators must be stateless with respect to the values they see:
// the same value must always produce the same outcome.
type Validator[T any] interface {
	Validate(value T) (T, bool, error)
}

// ValidationError is the normalized failure shape for rejected values.
//
// Whatever error a validator returns is converted into this type at the
// operator boundary; only the textual description survives the
// conversion. It is the only error this package ever delivers to a
// [Subscriber].
type ValidationError struct {
	// Description is the human-readable reason for the rejection.
	Description string
}

var _ error = &ValidationError{}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Description
}

// newValidationError normalizes an arbitrary validator error into a
// [*ValidationError]. An error that is already normalized passes through
// unchanged.
func newValidationError(err error) *ValidationError {
	if verr, ok := err.(*ValidationError); ok {
		return verr
	}
	return &ValidationError{Description: err.Error()}
}

// NewValidator returns an ad-hoc [Validator] from a value-or-absent
// closure. When the closure reports absence the value is rejected with a
// description derived from the given name.
//
// The name is owned by the returned validator and appears in every
// rejection description it produces.
func NewValidator[T any](name string, fn func(value T) (T, bool)) Validator[T] {
	return &funcValidator[T]{name: name, fn: fn}
}

type funcValidator[T any] struct {
	name string
	fn   func(value T) (T, bool)
}

var _ Validator[string] = &funcValidator[string]{}

// Validate implements [Validator].
func (v *funcValidator[T]) Validate(value T) (T, bool, error) {
	out, ok := v.fn(value)
	if !ok {
		var zero T
		return zero, false, &ValidationError{Description: v.name + ": invalid value"}
	}
	return out, true, nil
}

// NewTryValidator returns an ad-hoc [Validator] from an error-returning
// closure. A non-nil closure error rejects the value; its text becomes
// the rejection description, prefixed by the given name.
func NewTryValidator[T any](name string, fn func(value T) error) Validator[T] {
	return &tryFuncValidator[T]{name: name, fn: fn}
}

type tryFuncValidator[T any] struct {
	name string
	fn   func(value T) error
}

var _ Validator[string] = &tryFuncValidator[string]{}

// Validate implements [Validator].
func (v *tryFuncValidator[T]) Validate(value T) (T, bool, error) {
	if err := v.fn(value); err != nil {
		var zero T
		return zero, false, &ValidationError{Description: v.name + ": " + err.Error()}
	}
	return value, true, nil
}

// NewDeferredValidator returns a [Validator] that constructs the real
// validator at first use. Use this when building the validator is
// expensive or must happen after the operator is wired up.
func NewDeferredValidator[T any](build func() Validator[T]) Validator[T] {
	return &deferredValidator[T]{build: build}
}

type deferredValidator[T any] struct {
	build     func() Validator[T]
	validator Validator[T]
}

var _ Validator[string] = &deferredValidator[string]{}

// Validate implements [Validator]. The wrapped constructor runs at most
// once; the protocol is single-threaded so no locking is required.
func (v *deferredValidator[T]) Validate(value T) (T, bool, error) {
	if v.validator == nil {
		v.validator = v.build()
	}
	return v.validator.Validate(value)
}

// Validatable is implemented by value types that carry their own
// validation rule. Use [SelfValidator] to adapt such types to the
// [Validator] contract.
type Validatable interface {
	Validate() error
}

// SelfValidator returns a [Validator] that asks each value to validate
// itself via [Validatable].
func SelfValidator[T Validatable]() Validator[T] {
	return selfValidator[T]{}
}

type selfValidator[T Validatable] struct{}

// Validate implements [Validator].
func (selfValidator[T]) Validate(value T) (T, bool, error) {
	if err := value.Validate(); err != nil {
		var zero T
		return zero, false, newValidationError(err)
	}
	return value, true, nil
}
