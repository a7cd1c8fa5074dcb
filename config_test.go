// SPDX-License-Identifier: GPL-3.0-or-later

package vpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	// ErrClassifier should be DefaultErrClassifier
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))

	// TimeNow should be set and return a valid time
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}
