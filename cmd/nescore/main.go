// Package main implements the nescore executable.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"nescore/internal/app"
	"nescore/internal/version"
)

// options holds the parsed command line
type options struct {
	romPath    string
	configPath string
	steps      int
	until      string
	trace      bool
	loops      bool
	monitor    string
	version    bool
	help       bool

	set map[string]bool // flags given explicitly
}

var errUsage = errors.New("usage: nescore [flags] <rom>")

func main() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFlags(0)
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	if opts.help {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	if opts.version {
		version.WriteBuildInfo(os.Stdout)
		os.Exit(0)
	}

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{set: map[string]bool{}}

	flags := flag.NewFlagSet("nescore", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.IntVar(&opts.steps, "steps", -1, "Maximum instructions to execute, negative for no limit")
	flags.StringVar(&opts.configPath, "config", "", "Path to TOML configuration file")
	flags.StringVar(&opts.until, "until", "", "Starlark condition that stops the run, e.g. \"pc == 0x8010\"")
	flags.BoolVar(&opts.trace, "trace", false, "Log every executed instruction")
	flags.BoolVar(&opts.loops, "loops", false, "Warn when the CPU is stuck on one instruction")
	flags.StringVar(&opts.monitor, "monitor", "", "Monitor backend: headless, terminal or ebitengine")
	flags.BoolVar(&opts.version, "version", false, "Show version information")
	flags.BoolVar(&opts.help, "help", false, "Show help message")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	flags.Visit(func(fl *flag.Flag) {
		opts.set[fl.Name] = true
	})

	if opts.help || opts.version {
		return opts, nil
	}

	if flags.NArg() != 1 {
		return nil, errUsage
	}
	opts.romPath = flags.Arg(0)

	return opts, nil
}

// loadConfig reads the config file when one was named and applies the flags
// given on the command line over it
func loadConfig(opts *options) (*app.Config, error) {
	config := app.NewConfig()
	if opts.configPath != "" {
		if err := config.LoadFromFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.set["steps"] {
		config.Emulation.MaxSteps = opts.steps
	}
	if opts.set["until"] {
		config.Emulation.Until = opts.until
	}
	if opts.set["trace"] {
		config.Debug.CPUTracing = opts.trace
	}
	if opts.set["loops"] {
		config.Debug.LoopDetection = opts.loops
	}
	if opts.set["monitor"] {
		config.Monitor.Backend = opts.monitor
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func run(opts *options, stdout io.Writer) error {
	config, err := loadConfig(opts)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(config)
	if err != nil {
		return err
	}

	if err := application.LoadROM(opts.romPath); err != nil {
		return err
	}

	result, err := application.Run()
	if err != nil {
		return err
	}

	return app.WriteReport(stdout, result)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "nescore - NES 6502 CPU core")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  nescore [options] <rom>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -steps N          Maximum instructions to execute (default: no limit)")
	fmt.Fprintln(w, "  -config FILE      TOML configuration file")
	fmt.Fprintln(w, "  -until EXPR       Stop before the instruction where EXPR is true")
	fmt.Fprintln(w, "  -trace            Log every executed instruction")
	fmt.Fprintln(w, "  -loops            Warn when the CPU is stuck on one instruction")
	fmt.Fprintln(w, "  -monitor NAME     headless, terminal or ebitengine")
	fmt.Fprintln(w, "  -version          Show version information")
	fmt.Fprintln(w, "  -help             Show this message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STOP CONDITIONS:")
	fmt.Fprintln(w, "  Starlark expressions over a x y sp pc status cycles steps and mem(addr)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  nescore game.nes")
	fmt.Fprintln(w, "  nescore -steps 1000 -trace game.nes")
	fmt.Fprintln(w, "  nescore -until \"mem(0x10) == 5\" -monitor terminal game.nes")
	fmt.Fprintln(w, "  nescore -monitor ebitengine game.nes")
}
