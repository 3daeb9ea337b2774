package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/monitor"
	"nescore/internal/version"
	"nescore/internal/watch"
)

// Application loads a ROM, runs it under a monitor backend and reports the
// final state
type Application struct {
	config    *Config
	bus       *bus.Bus
	backend   monitor.Backend
	condition *watch.Condition
	logger    *log.Logger

	romPath string

	// Run state
	remaining int // instructions left in the budget, negative for none
	steps     int
	reason    cpu.StopReason
	done      bool
	runErr    error
}

// Result is the outcome of Run
type Result struct {
	Steps     int
	Reason    cpu.StopReason
	Registers cpu.Registers
	Snapshot  bus.Snapshot
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return f("%s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application from a validated copy of config
func NewApplication(config *Config) (*Application, error) {
	config = config.Clone()
	if err := config.validate(); err != nil {
		return nil, err
	}

	app := &Application{
		config:    config,
		condition: config.until,
		logger:    log.Default(),
	}

	backend, err := monitor.CreateBackend(monitor.BackendType(config.Monitor.Backend))
	if err != nil {
		return nil, &ApplicationError{Component: "monitor", Operation: "backend setup", Err: err}
	}
	app.backend = backend

	return app, nil
}

// SetLogger redirects application and CPU log output. nil restores
// log.Default().
func (app *Application) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	app.logger = logger
	if app.bus != nil {
		app.bus.SetLogger(logger)
	}
}

// LoadROM loads an iNES file and resets the machine
func (app *Application) LoadROM(romPath string) error {
	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}

	app.LoadCartridge(cart)
	app.romPath = romPath

	if app.config.Debug.EnableLogging {
		app.logger.Printf("[APP] Loaded %s: %s", filepath.Base(romPath), cart)
	}

	return nil
}

// LoadCartridge runs an already parsed cartridge
func (app *Application) LoadCartridge(cart *cartridge.Cartridge) {
	app.romPath = ""
	app.attach(bus.New(cart))
}

func (app *Application) attach(b *bus.Bus) {
	app.bus = b
	app.bus.SetLogger(app.logger)
	app.bus.EnableCPUDebug(app.config.Debug.CPUTracing, app.config.Debug.LoopDetection)

	for _, address := range app.config.Debug.WatchAddresses {
		app.bus.AddMemoryWatchpoint(address)
	}
	app.bus.EnableWatchpointLogging(len(app.config.Debug.WatchAddresses) > 0)

	app.remaining = app.config.Emulation.MaxSteps
	app.steps = 0
	app.reason = cpu.StopBudget
	app.done = false
	app.runErr = nil
}

// Run drives the loaded ROM through the monitor backend until BRK, the
// budget, the stop condition or an error
func (app *Application) Run() (Result, error) {
	if app.bus == nil {
		return Result{}, errors.New(f("no ROM loaded"))
	}

	title := "nescore"
	if app.romPath != "" {
		title = fmt.Sprintf("nescore - %s", filepath.Base(app.romPath))
	}

	if err := app.backend.Initialize(monitor.Config{
		WindowTitle:   title,
		Scale:         app.config.Monitor.Scale,
		StepsPerFrame: app.config.Monitor.StepsPerFrame,
		Debug:         app.config.Debug.EnableLogging,
	}); err != nil {
		return Result{}, &ApplicationError{Component: "monitor", Operation: "initialize", Err: err}
	}
	defer app.backend.Cleanup()

	if app.config.Debug.EnableLogging {
		app.logger.Printf("[APP] Starting nescore %s with %s monitor", version.GetVersion(), app.backend.GetName())
	}

	err := app.backend.Run(app)

	result := Result{
		Steps:     app.steps,
		Reason:    app.reason,
		Registers: app.bus.Registers(),
		Snapshot:  app.bus.Snapshot(),
	}
	return result, err
}

// Advance executes at most n instructions of the run. It implements
// monitor.Session.
func (app *Application) Advance(n int) (bool, error) {
	if app.done {
		return true, app.runErr
	}

	budget := n
	if app.remaining >= 0 && app.remaining < budget {
		budget = app.remaining
	}

	var stop bus.StopFunc
	if app.condition != nil {
		stop = func(b *bus.Bus) (bool, error) {
			return app.condition.Eval(b)
		}
	}

	steps, reason, err := app.bus.RunUntil(budget, stop)
	app.steps += steps
	app.reason = reason
	if app.remaining >= 0 {
		app.remaining -= steps
	}

	switch {
	case err != nil:
		app.runErr = err
		app.done = true
	case reason == cpu.StopHalt, reason == cpu.StopCondition, app.remaining == 0:
		app.done = true
	}
	return app.done, app.runErr
}

// Snapshot returns the current machine state. It implements monitor.Session.
func (app *Application) Snapshot() bus.Snapshot {
	return app.bus.Snapshot()
}

// WriteReport prints the step count and the final registers
func WriteReport(w io.Writer, result Result) error {
	_, err := fmt.Fprintf(w, "Stopped after %d steps\n%s\n", result.Steps, result.Registers)
	return err
}
