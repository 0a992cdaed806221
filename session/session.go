// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package session is the public API for declaring, building and running a
// compute graph: registering nodes and composite nodes, wiring them into a
// topology, starting worker threads, and feeding/collecting tensors at the
// graph's boundary.
package session

import (
	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/scheduler"
	"github.com/born-ml/born/internal/session"
	"github.com/born-ml/born/internal/tensor"
)

// Mode names an execution mode. It is stored in Config but has no effect
// on how the worker goroutines run.
type Mode = session.Mode

// Supported execution modes.
const (
	ModeSerial   Mode = session.ModeSerial
	ModeParallel Mode = session.ModeParallel
)

// Config controls session-wide behavior.
type Config = session.Config

// Edge is a directed connection from a producer node to a consumer node,
// identified by name.
type Edge = graph.Edge

// Task is the payload a node wraps: a callable taking input and output
// tensor views, run to completion exactly once per invocation.
type Task = node.Task

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc = node.TaskFunc

// Info is the diagnostic dump returned by ShowInfo.
type Info = scheduler.Info

// Session is the façade over topology, scheduler and node construction.
type Session = session.Session

// Errors returned by API misuse.
var (
	ErrAlreadyBuilt  = session.ErrAlreadyBuilt
	ErrNotBuilt      = session.ErrNotBuilt
	ErrAlreadyExists = session.ErrAlreadyExists
	ErrNotStarted    = session.ErrNotStarted
	ErrUnknownNode   = session.ErrUnknownNode
)

// New creates a Session with the given name and configuration.
func New(name string, cfg Config) *Session {
	return session.New(name, cfg)
}

// re-exported so callers can build views/shapes without a second import.
type (
	// Shape represents the dimensions of a tensor.
	Shape = tensor.Shape
	// View is a stable, non-owning descriptor of a Tensor.
	View = tensor.View
)
