package monitor

import (
	"fmt"
	"log"
)

// HeadlessBackend runs the session without displaying anything
type HeadlessBackend struct {
	initialized bool
	config      Config
	frameCount  int
}

// NewHeadlessBackend creates a new headless backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// Run advances the session until it stops
func (b *HeadlessBackend) Run(session Session) error {
	if !b.initialized {
		return fmt.Errorf("backend not initialized")
	}

	stepsPerFrame := b.config.StepsPerFrame
	if stepsPerFrame <= 0 {
		stepsPerFrame = 1
	}
	for {
		done, err := session.Advance(stepsPerFrame)
		b.frameCount++
		if b.config.Debug && b.frameCount%1000 == 0 {
			snapshot := session.Snapshot()
			log.Printf("[HEADLESS] Frame %d: steps=%d PC=$%04X", b.frameCount, snapshot.Steps, snapshot.Registers.PC)
		}
		if done {
			return err
		}
	}
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}
