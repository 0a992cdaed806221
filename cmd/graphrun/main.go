// Package main provides the graphrun CLI: build a small demo compute
// graph, feed it a tensor, and print the result.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/born-ml/born/internal/cpubackend"
	"github.com/born-ml/born/session"
	"github.com/born-ml/born/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("graphrun %s\n", version)
		return
	}

	demo := "linear"
	if len(os.Args) > 1 {
		demo = os.Args[1]
	}

	out, err := run(demo, []float32{1, 2, 3, 4})
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphrun:", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %v\n", demo, out)
}

// run builds the named demo graph, feeds in, and returns the result.
func run(demo string, in []float32) ([]float32, error) {
	switch demo {
	case "linear":
		return runLinear(in)
	case "diamond":
		return runDiamond(in)
	case "composite":
		return runComposite(in)
	default:
		return nil, fmt.Errorf("unknown demo %q (want linear, diamond or composite)", demo)
	}
}

func runLinear(in []float32) ([]float32, error) {
	shape := session.Shape{len(in)}
	s := session.New("graphrun-linear", session.Config{})

	if err := s.CreateNode("A", cpubackend.Identity(), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("B", cpubackend.AddScalar(1), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("C", cpubackend.Scale(2), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.BuildGraph([]session.Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	}); err != nil {
		return nil, err
	}
	return feedAndRun(s, shape, in)
}

func runDiamond(in []float32) ([]float32, error) {
	shape := session.Shape{len(in)}
	s := session.New("graphrun-diamond", session.Config{})

	if err := s.CreateNode("A", cpubackend.Identity(), []session.Shape{shape}, []session.Shape{shape, shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("B", cpubackend.Scale(2), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("C", cpubackend.Scale(3), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("D", cpubackend.Add(), []session.Shape{shape, shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.BuildGraph([]session.Edge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
		{Source: "B", Target: "D"},
		{Source: "C", Target: "D"},
	}); err != nil {
		return nil, err
	}
	return feedAndRun(s, shape, in)
}

func runComposite(in []float32) ([]float32, error) {
	shape := session.Shape{len(in)}
	s := session.New("graphrun-composite", session.Config{})

	if err := s.CreateNode("A", cpubackend.Identity(), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("B1", cpubackend.AddScalar(0.5), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("B2", cpubackend.AddScalar(0.5), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateNode("C", cpubackend.Scale(2), []session.Shape{shape}, []session.Shape{shape}, 0); err != nil {
		return nil, err
	}
	if err := s.CreateComposite("B", []session.Edge{{Source: "B1", Target: "B2"}}); err != nil {
		return nil, err
	}
	if err := s.BuildGraph([]session.Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	}); err != nil {
		return nil, err
	}
	return feedAndRun(s, shape, in)
}

func feedAndRun(s *session.Session, shape session.Shape, in []float32) ([]float32, error) {
	if err := s.Start(); err != nil {
		return nil, err
	}
	defer s.Stop()

	inTensor, err := tensor.New(shape, tensor.Float32, tensor.Host)
	if err != nil {
		return nil, err
	}
	writeFloats(inTensor.View(), in)
	if err := s.Feed(inTensor.View()); err != nil {
		return nil, err
	}

	outTensor, err := tensor.New(shape, tensor.Float32, tensor.Host)
	if err != nil {
		return nil, err
	}
	if err := s.GetResult(outTensor.View()); err != nil {
		return nil, err
	}
	return readFloats(outTensor.View()), nil
}

func writeFloats(v tensor.View, vals []float32) {
	for i, f := range vals {
		binary.LittleEndian.PutUint32(v.Data[i*4:], math.Float32bits(f))
	}
}

func readFloats(v tensor.View) []float32 {
	out := make([]float32, v.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.Data[i*4:]))
	}
	return out
}
