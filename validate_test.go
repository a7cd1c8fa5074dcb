// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewValidatePublisher populates all fields from Config and the provided
// collaborators.
func TestNewValidatePublisher(t *testing.T) {
	cfg := NewConfig()
	upstream := newTestUpstream[string]()

	pub := NewValidatePublisher(cfg, upstream, newTestValidator(), DefaultSLogger())

	require.NotNil(t, pub)
	assert.NotNil(t, pub.ErrClassifier)
	assert.NotNil(t, pub.Logger)
	assert.NotNil(t, pub.TimeNow)
	assert.NotNil(t, pub.Upstream)
	assert.NotNil(t, pub.Validator)
}

// Accepted elements are forwarded as present optionals and the downstream
// demand is relayed back to the pushing source.
func TestValidatePublisherAccepted(t *testing.T) {
	upstream := newTestUpstream[string]()
	pub := NewValidatePublisher(NewConfig(), upstream, newTestValidator(), DefaultSLogger())
	downstream := &recordingSubscriber[Optional[string]]{demand: 3}

	pub.Subscribe(downstream)
	require.NotNil(t, downstream.subscription)

	// Demand flows through unchanged
	downstream.subscription.Request(10)
	require.Equal(t, []Demand{10}, upstream.handle.requests)

	// The value reaching the consumer equals the original input
	granted := upstream.push("foo-bar")
	assert.Equal(t, Demand(3), granted)
	require.Len(t, downstream.values, 1)
	value, ok := downstream.values[0].Get()
	require.True(t, ok)
	assert.Equal(t, "foo-bar", value)
}

// The first rejection surfaces as a single absent optional; afterwards the
// operator is dead for validation but the downstream stays attached.
func TestValidatePublisherRejection(t *testing.T) {
	upstream := newTestUpstream[string]()
	pub := NewValidatePublisher(NewConfig(), upstream, newTestValidator(), DefaultSLogger())
	downstream := &recordingSubscriber[Optional[string]]{demand: 5}

	pub.Subscribe(downstream)

	granted := upstream.push("fo")
	assert.Equal(t, DemandNone, granted)
	require.Len(t, downstream.values, 1)
	assert.False(t, downstream.values[0].IsPresent())
	assert.Empty(t, downstream.completions)

	// One-shot-dead-after-first-rejection: later elements are swallowed
	granted = upstream.push("foo-bar")
	assert.Equal(t, DemandNone, granted)
	assert.Len(t, downstream.values, 1)

	// The validator is cleared but the downstream is still attached:
	// the relationship is complete without being force-cancelled
	state, ok := downstream.subscription.(*validateSubscription[string])
	require.True(t, ok)
	assert.Nil(t, state.validator)
	assert.NotNil(t, state.downstream)
	assert.Equal(t, 0, upstream.handle.cancels)
}

// The upstream completion is forwarded exactly once.
func TestValidatePublisherCompletion(t *testing.T) {
	upstream := newTestUpstream[string]()
	pub := NewValidatePublisher(NewConfig(), upstream, newTestValidator(), DefaultSLogger())
	downstream := &recordingSubscriber[Optional[string]]{}

	pub.Subscribe(downstream)

	upstream.complete(Finished())
	require.Len(t, downstream.completions, 1)

	// No signal after termination
	upstream.complete(Finished())
	assert.Len(t, downstream.completions, 1)
	granted := upstream.push("foo-bar")
	assert.Equal(t, DemandNone, granted)
	assert.Empty(t, downstream.values)
}

// Cancelling the subscription cancels the upstream handle and clears the
// state; cancelling again is a no-op.
func TestValidatePublisherCancel(t *testing.T) {
	upstream := newTestUpstream[string]()
	pub := NewValidatePublisher(NewConfig(), upstream, newTestValidator(), DefaultSLogger())
	downstream := &recordingSubscriber[Optional[string]]{}

	pub.Subscribe(downstream)

	downstream.subscription.Cancel()
	require.Equal(t, 1, upstream.handle.cancels)

	// Pushes after cancellation are swallowed
	granted := upstream.push("foo-bar")
	assert.Equal(t, DemandNone, granted)
	assert.Empty(t, downstream.values)

	downstream.subscription.Cancel()
	assert.Equal(t, 1, upstream.handle.cancels)
}

// The operator emits subscribe plus per-element validate event pairs.
func TestValidatePublisherLogging(t *testing.T) {
	logger, records := newCapturingLogger()
	upstream := newTestUpstream[string]()
	pub := NewValidatePublisher(NewConfig(), upstream, newTestValidator(), logger)
	downstream := &recordingSubscriber[Optional[string]]{}

	pub.Subscribe(downstream)
	upstream.push("foo-bar")

	require.Len(t, *records, 3)
	assert.Equal(t, "subscribe", (*records)[0].Message)
	assert.Equal(t, "validateStart", (*records)[1].Message)
	assert.Equal(t, "validateDone", (*records)[2].Message)
}
