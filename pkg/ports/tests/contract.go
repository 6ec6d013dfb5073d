package tests

import (
	"testing"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StateSourceContractTest is a reusable test suite that verifies if an adapter complies with
// ports.StateSource. The source must contain the entry and top-level states and nothing
// with an id at or above firstFreeID.
func StateSourceContractTest(t *testing.T, source ports.StateSource, invalid []string, firstFreeID string) {
	t.Helper()

	t.Run("State_Success", func(t *testing.T) {
		for _, id := range []string{domain.EntryStateID, domain.TopStateID} {
			st, err := source.State(id)
			require.NoError(t, err, "state %s", id)
			assert.Equal(t, id, st.ID)
			assert.NotEmpty(t, st.Messages, "state %s must have a prompt", id)
		}
	})

	t.Run("State_NotFound", func(t *testing.T) {
		_, err := source.State("non-existent-state")
		assert.ErrorIs(t, err, domain.ErrUnknownState)
	})

	t.Run("State_ReturnsCopy", func(t *testing.T) {
		st, err := source.State(domain.TopStateID)
		require.NoError(t, err)
		st.Messages[0] = "mutated"

		again, err := source.State(domain.TopStateID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Messages[0])
	})

	t.Run("InvalidAnswer_FromPool", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Contains(t, invalid, source.InvalidAnswer())
		}
	})

	t.Run("AddState_Counter", func(t *testing.T) {
		first := source.AddState(domain.State{ID: "ignored", Messages: []string{"learned one"}})
		second := source.AddState(domain.State{Messages: []string{"learned two"}})
		assert.Equal(t, firstFreeID, first)
		assert.NotEqual(t, first, second)

		st, err := source.State(first)
		require.NoError(t, err)
		assert.Equal(t, []string{"learned one"}, st.Messages)
		assert.True(t, st.IsTerminal())
	})

	t.Run("AppendKeyword", func(t *testing.T) {
		before, err := source.State(domain.TopStateID)
		require.NoError(t, err)

		kw := domain.Keyword{Pattern: "contract", Points: 1, Action: domain.Transition{Target: domain.EntryStateID}}
		require.NoError(t, source.AppendKeyword(domain.TopStateID, kw))

		after, err := source.State(domain.TopStateID)
		require.NoError(t, err)
		require.Len(t, after.Keywords, len(before.Keywords)+1)
		assert.Equal(t, kw, after.Keywords[len(after.Keywords)-1])

		assert.ErrorIs(t, source.AppendKeyword("non-existent-state", kw), domain.ErrUnknownState)
	})
}
