package wiring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/tensor"
)

func noopTask(inputs, outputs []tensor.View) error { return nil }

func TestWire_LinearPipeline(t *testing.T) {
	shape := tensor.Shape{4}
	a := node.NewNormal("A", node.TaskFunc(noopTask), []tensor.Shape{shape}, []tensor.Shape{shape})
	b := node.NewNormal("B", node.TaskFunc(noopTask), []tensor.Shape{shape}, []tensor.Shape{shape})
	c := node.NewNormal("C", node.TaskFunc(noopTask), []tensor.Shape{shape}, []tensor.Shape{shape})

	names := []string{"A", "B", "C"}
	nodes := map[string]node.Node{"A": a, "B": b, "C": c}

	topo, err := graph.Build(names, []graph.Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	})
	require.NoError(t, err)
	a.SetOutputNodes(topo.GetOutputs("A"))
	b.SetInputNodes(topo.GetInputs("B"))
	b.SetOutputNodes(topo.GetOutputs("B"))
	c.SetInputNodes(topo.GetInputs("C"))

	result, err := Wire(nodes, names, topo, 2, tensor.Host)
	require.NoError(t, err)

	require.Len(t, a.OutputQueues(), 1)
	require.Len(t, b.InputQueues(), 1)
	require.Len(t, b.OutputQueues(), 1)
	require.Len(t, c.InputQueues(), 1)

	assert.Equal(t, a.OutputQueues()[0], b.InputQueues()[0])
	assert.Equal(t, b.OutputQueues()[0], c.InputQueues()[0])
	assert.Equal(t, "A", b.InputQueues()[0].FrontName)
	assert.Equal(t, "B", b.InputQueues()[0].RearName)

	assert.NotNil(t, result.InputPair)
	assert.NotNil(t, result.OutputPair)
	assert.Equal(t, result.InputPair, a.InputQueues()[0])
	assert.Equal(t, result.OutputPair, c.OutputQueues()[0])
}

func TestWire_ShapeMismatchFails(t *testing.T) {
	a := node.NewNormal("A", node.TaskFunc(noopTask), nil, []tensor.Shape{{4}})
	b := node.NewNormal("B", node.TaskFunc(noopTask), []tensor.Shape{{8}}, nil)

	names := []string{"A", "B"}
	nodes := map[string]node.Node{"A": a, "B": b}
	topo, err := graph.Build(names, []graph.Edge{{Source: "A", Target: "B"}})
	require.NoError(t, err)
	a.SetOutputNodes(topo.GetOutputs("A"))
	b.SetInputNodes(topo.GetInputs("B"))

	_, err = Wire(nodes, names, topo, 2, tensor.Host)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
