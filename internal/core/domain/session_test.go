package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionState_Terminal(t *testing.T) {
	terminal := []SessionState{StateCompleted, StateFailed, StateCancelled, StateSuperseded}
	active := []SessionState{StateIdle, StateBuilding, StateDispatching, StateStreaming}

	for _, s := range terminal {
		assert.True(t, s.Terminal(), "state %s", s)
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), "state %s", s)
	}
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "superseded", StateSuperseded.String())
	assert.Equal(t, "unknown", SessionState(99).String())
}

func TestSessionSnapshot_HitCounts(t *testing.T) {
	alpha := &SearchTerm{Pattern: "alpha"}
	beta := &SearchTerm{Pattern: "beta"}
	snap := &SessionSnapshot{
		Hits: []*Hit{
			{Term: alpha},
			{Term: alpha},
			{Term: beta},
			{Term: nil}, // reason-filter hit
		},
	}

	counts := snap.HitCounts()

	assert.Equal(t, map[string]int{"alpha": 2, "beta": 1}, counts)
}
