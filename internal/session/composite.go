package session

import (
	"fmt"

	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/tensor"
	"github.com/born-ml/born/internal/wiring"
)

// buildComposite builds the inner topology for a composite node's edges,
// wires its inner nodes' queue pairs, and constructs the CompositeNode
// itself. Split out of Session.CreateComposite for testability.
func buildComposite(name string, innerNames []string, innerNodes map[string]node.Node, edges []graph.Edge, capacity int) (*node.CompositeNode, error) {
	topo, err := graph.Build(innerNames, edges)
	if err != nil {
		return nil, fmt.Errorf("composite %q: %w", name, err)
	}
	for _, n := range innerNames {
		innerNodes[n].SetInputNodes(topo.GetInputs(n))
		innerNodes[n].SetOutputNodes(topo.GetOutputs(n))
	}

	result, err := wiring.Wire(innerNodes, innerNames, topo, capacity, tensor.Host)
	if err != nil {
		return nil, fmt.Errorf("composite %q: %w", name, err)
	}

	orderedInner := make([]node.Node, len(innerNames))
	for i, n := range innerNames {
		orderedInner[i] = innerNodes[n]
	}

	inputShape := innerNodes[topo.InputNode].InputShapes()[0]
	outputShape := innerNodes[topo.OutputNode].OutputShapes()[0]

	return node.NewComposite(name, orderedInner, result.InputPair, result.OutputPair, inputShape, outputShape), nil
}
