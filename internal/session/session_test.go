package session

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/tensor"
)

func floatsFromView(v tensor.View) []float32 {
	n := v.NumElements()
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.Data[i*4 : i*4+4]))
	}
	return out
}

func writeFloats(v tensor.View, vals []float32) {
	for i, f := range vals {
		binary.LittleEndian.PutUint32(v.Data[i*4:i*4+4], math.Float32bits(f))
	}
}

func identityTask(inputs, outputs []tensor.View) error {
	for _, out := range outputs {
		copy(out.Data, inputs[0].Data)
	}
	return nil
}

func addScalarTask(delta float32) node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		vals := floatsFromView(inputs[0])
		for i := range vals {
			vals[i] += delta
		}
		writeFloats(outputs[0], vals)
		return nil
	})
}

func scaleTask(factor float32) node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		vals := floatsFromView(inputs[0])
		for i := range vals {
			vals[i] *= factor
		}
		writeFloats(outputs[0], vals)
		return nil
	})
}

func subTensorsTask() node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		a := floatsFromView(inputs[0])
		b := floatsFromView(inputs[1])
		out := make([]float32, len(a))
		for i := range a {
			out[i] = a[i] - b[i]
		}
		writeFloats(outputs[0], out)
		return nil
	})
}

func feedAndGet(t *testing.T, s *Session, shape tensor.Shape, in []float32) []float32 {
	t.Helper()
	inT, err := tensor.New(shape, tensor.Float32, tensor.Host)
	require.NoError(t, err)
	v := inT.View()
	writeFloats(v, in)
	require.NoError(t, s.Feed(v))

	outT, err := tensor.New(shape, tensor.Float32, tensor.Host)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.GetResult(outT.View()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("GetResult did not complete in time")
	}
	return floatsFromView(outT.View())
}

func TestSession_LinearPipeline(t *testing.T) {
	shape := tensor.Shape{4}
	s := New("linear", Config{})

	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("B", addScalarTask(1), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("C", scaleTask(2), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))

	require.NoError(t, s.BuildGraph([]Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	out := feedAndGet(t, s, shape, []float32{1, 2, 3, 4})
	assert.Equal(t, []float32{4, 6, 8, 10}, out)
}

func TestSession_DiamondGraph(t *testing.T) {
	shape := tensor.Shape{1}
	s := New("diamond", Config{})

	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape, shape}, 0))
	require.NoError(t, s.CreateNode("B", scaleTask(2), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("C", scaleTask(3), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("D", subTensorsTask(), []tensor.Shape{shape, shape}, []tensor.Shape{shape}, 0))

	require.NoError(t, s.BuildGraph([]Edge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
		{Source: "B", Target: "D"},
		{Source: "C", Target: "D"},
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	// D subtracts its second input from its first; a positional-reorder
	// regression that swapped B and C ahead of D would flip the sign here.
	out := feedAndGet(t, s, shape, []float32{1})
	assert.Equal(t, []float32{-1}, out)
}

func TestSession_StopIsIdempotent(t *testing.T) {
	shape := tensor.Shape{1}
	s := New("idempotent", Config{})
	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.BuildGraph(nil))
	require.NoError(t, s.Start())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop()) // second call is a no-op, not an error
}

func TestSession_FeedBeforeStartFails(t *testing.T) {
	shape := tensor.Shape{1}
	s := New("unstarted", Config{})
	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.BuildGraph(nil))

	ts, err := tensor.New(shape, tensor.Float32, tensor.Host)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Feed(ts.View()), ErrNotStarted)
}

func TestSession_CreateNodeAfterBuildFails(t *testing.T) {
	shape := tensor.Shape{1}
	s := New("built", Config{})
	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.BuildGraph(nil))

	err := s.CreateNode("B", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0)
	assert.ErrorIs(t, err, ErrAlreadyBuilt)
}

// TestSession_CompositeSubstitution replaces a single increment node with
// a composite node whose internal graph splits the same +1 into two +0.5
// steps, and expects the observed output to be identical.
func TestSession_CompositeSubstitution(t *testing.T) {
	shape := tensor.Shape{4}
	s := New("composite", Config{})

	require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("B1", addScalarTask(0.5), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("B2", addScalarTask(0.5), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
	require.NoError(t, s.CreateNode("C", scaleTask(2), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))

	require.NoError(t, s.CreateComposite("B", []Edge{{Source: "B1", Target: "B2"}}))

	require.NoError(t, s.BuildGraph([]Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	out := feedAndGet(t, s, shape, []float32{1, 2, 3, 4})
	assert.Equal(t, []float32{4, 6, 8, 10}, out)
}

func TestSession_ParallelChainsDoNotCrossContaminate(t *testing.T) {
	shape := tensor.Shape{1}

	chain := func(t *testing.T, delta float32) *Session {
		s := New("chain", Config{})
		require.NoError(t, s.CreateNode("A", node.TaskFunc(identityTask), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
		require.NoError(t, s.CreateNode("B", addScalarTask(delta), []tensor.Shape{shape}, []tensor.Shape{shape}, 0))
		require.NoError(t, s.BuildGraph([]Edge{{Source: "A", Target: "B"}}))
		require.NoError(t, s.Start())
		return s
	}

	s1 := chain(t, 1)
	s2 := chain(t, 100)
	defer s1.Stop()
	defer s2.Stop()

	const n = 50
	for i := 0; i < n; i++ {
		out1 := feedAndGet(t, s1, shape, []float32{float32(i)})
		out2 := feedAndGet(t, s2, shape, []float32{float32(i)})
		assert.Equal(t, float32(i)+1, out1[0])
		assert.Equal(t, float32(i)+100, out2[0])
	}
}
