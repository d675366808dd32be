package silo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineStartsReady(t *testing.T) {
	m := newStateMachine()
	assert.Equal(t, StateReady, m.get())
}

func TestStateMachineAllowsReconcileCycle(t *testing.T) {
	m := newStateMachine()
	require.NoError(t, m.transition(StateScanning))
	require.NoError(t, m.transition(StateIndexing))
	require.NoError(t, m.transition(StateReady))
}

func TestStateMachineAllowsStopAndRestart(t *testing.T) {
	m := newStateMachine()
	require.NoError(t, m.transition(StateStopped))
	require.NoError(t, m.transition(StateReady))
}

func TestStateMachineRejectsIllegalTransition(t *testing.T) {
	m := newStateMachine()
	require.NoError(t, m.transition(StateStopped))

	err := m.transition(StateIndexing)
	require.Error(t, err)
	var illegal *ErrIllegalTransition
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StateStopped, illegal.From)
	assert.Equal(t, StateIndexing, illegal.To)
}

func TestStateMachineAnyStateMayErrorOut(t *testing.T) {
	m := newStateMachine()
	require.NoError(t, m.transition(StateScanning))
	require.NoError(t, m.transition(StateError))
	assert.Equal(t, StateError, m.get())
}

func TestStateMachineErrorRecoversToReady(t *testing.T) {
	m := newStateMachine()
	require.NoError(t, m.transition(StateError))
	require.NoError(t, m.transition(StateReady))
}
