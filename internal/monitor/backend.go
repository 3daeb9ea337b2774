// Package monitor provides display backends for a running machine
package monitor

import (
	"fmt"
	"io"

	"nescore/internal/bus"
)

// Session is the emulation a backend drives and displays
type Session interface {
	// Advance executes at most n instructions and reports whether the run
	// is over. Once it returns true it keeps returning true and the same error.
	Advance(n int) (done bool, err error)

	// Snapshot returns the current machine state
	Snapshot() bus.Snapshot
}

// Backend represents a display backend (headless, terminal, Ebitengine)
type Backend interface {
	// Initialize initializes the backend
	Initialize(config Config) error

	// Run drives the session to completion while displaying it
	Run(session Session) error

	// Cleanup releases all resources
	Cleanup() error

	// GetName returns the backend name for identification
	GetName() string
}

// Config contains configuration for display backends
type Config struct {
	WindowTitle   string
	Scale         int // window scale for the text panel
	StepsPerFrame int // instructions per Advance call
	Output        io.Writer
	Debug         bool
}

// BackendType represents different display backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// BackendTypes lists every backend name accepted by CreateBackend
func BackendTypes() []BackendType {
	return []BackendType{BackendHeadless, BackendTerminal, BackendEbitengine}
}

// CreateBackend creates a display backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown monitor backend %q", backendType)
	}
}

// drive advances the session until it is done
func drive(session Session, stepsPerFrame int) error {
	if stepsPerFrame <= 0 {
		stepsPerFrame = 1
	}
	for {
		done, err := session.Advance(stepsPerFrame)
		if done {
			return err
		}
	}
}
