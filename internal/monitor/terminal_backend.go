package monitor

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// defaultTerminalWidth is used when the output is not a terminal
const defaultTerminalWidth = 80

// TerminalBackend prints the machine state as a text panel when the run ends
type TerminalBackend struct {
	initialized bool
	config      Config
	output      io.Writer
}

// NewTerminalBackend creates a new terminal backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.output = config.Output
	if b.output == nil {
		b.output = os.Stdout
	}
	b.initialized = true

	return nil
}

// Run advances the session until it stops, then prints the panel. The panel
// is printed even when the run ended with an error.
func (b *TerminalBackend) Run(session Session) error {
	if !b.initialized {
		return fmt.Errorf("backend not initialized")
	}

	runErr := drive(session, b.config.StepsPerFrame)

	if b.config.WindowTitle != "" && b.isTerminal() {
		fmt.Fprintf(b.output, "\033]0;%s\007", b.config.WindowTitle) // Set terminal title
	}
	if _, err := io.WriteString(b.output, FormatSnapshot(session.Snapshot(), b.width())); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// width returns the terminal width, or a default when output is redirected
func (b *TerminalBackend) width() int {
	file, ok := b.output.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

func (b *TerminalBackend) isTerminal() bool {
	file, ok := b.output.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}
