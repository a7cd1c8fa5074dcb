// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

// Optional carries a value that may be absent. It is the output element
// type of [ValidatePublisher] and [ValidatedPublisher], where a rejected
// element surfaces as an absent value rather than as a stream failure.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns an [Optional] holding the given value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// None returns an absent [Optional].
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether the value is present.
func (o Optional[T]) IsPresent() bool {
	return o.present
}
