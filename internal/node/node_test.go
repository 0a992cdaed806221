package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/queue"
)

func TestReorderInputQueues_MatchesDeclaredOrder(t *testing.T) {
	n := NewNormal("consumer", nil, nil, nil)

	qC := queue.New("C", "consumer", 1)
	qA := queue.New("A", "consumer", 1)
	qB := queue.New("B", "consumer", 1)
	n.SetInputQueues([]*queue.Pair{qC, qA, qB})
	n.SetInputNodes([]string{"A", "B", "C"})

	require.NoError(t, n.ReorderInputQueues())
	got := n.InputQueues()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].FrontName)
	assert.Equal(t, "B", got[1].FrontName)
	assert.Equal(t, "C", got[2].FrontName)
}

func TestReorderOutputQueues_MatchesDeclaredOrder(t *testing.T) {
	n := NewNormal("producer", nil, nil, nil)

	qC := queue.New("producer", "C", 1)
	qA := queue.New("producer", "A", 1)
	qB := queue.New("producer", "B", 1)
	n.SetOutputQueues([]*queue.Pair{qC, qA, qB})
	n.SetOutputNodes([]string{"A", "B", "C"})

	require.NoError(t, n.ReorderOutputQueues())
	got := n.OutputQueues()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].RearName)
	assert.Equal(t, "B", got[1].RearName)
	assert.Equal(t, "C", got[2].RearName)
}

func TestReorderInputQueues_KeepsBoundaryQueueTrailing(t *testing.T) {
	n := NewNormal("consumer", nil, nil, nil)

	boundary := queue.New("", "consumer", 1)
	qB := queue.New("B", "consumer", 1)
	qA := queue.New("A", "consumer", 1)
	n.SetInputQueues([]*queue.Pair{boundary, qB, qA})
	n.SetInputNodes([]string{"A", "B"})

	require.NoError(t, n.ReorderInputQueues())
	got := n.InputQueues()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].FrontName)
	assert.Equal(t, "B", got[1].FrontName)
	assert.Equal(t, "", got[2].FrontName)
}

func TestReorderInputQueues_MissingNeighborFails(t *testing.T) {
	n := NewNormal("consumer", nil, nil, nil)

	qA := queue.New("A", "consumer", 1)
	n.SetInputQueues([]*queue.Pair{qA})
	n.SetInputNodes([]string{"A", "B"})

	err := n.ReorderInputQueues()
	assert.Error(t, err)
}
