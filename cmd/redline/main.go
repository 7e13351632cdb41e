// Package main is the entry point for the redline demo editor.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dshills/redline/internal/app"
	"github.com/dshills/redline/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

const sampleText = "Redline watches your prose while you type.\n\n" +
	"Click a marked span to see teh suggestion, accept it to splice the fix, " +
	"or dismiss it so analysis stops offering it.\n\n" +
	"The rewrite workflow shortens or lengthens whole paragraphs toward a target."

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		logPath     string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&logPath, "log", "", "Write diagnostics to this file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Redline - suggestion and rewrite demo surface\n\n")
		fmt.Fprintf(os.Stderr, "Usage: redline [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl-A  analyze the document\n")
		fmt.Fprintf(os.Stderr, "  Enter   accept the suggestion under the cursor\n")
		fmt.Fprintf(os.Stderr, "  Ctrl-D  dismiss the suggestion under the cursor\n")
		fmt.Fprintf(os.Stderr, "  Ctrl-Q  quit\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("redline %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	log := app.NewLogger(logOut, cfg.Logging.Level)

	text := sampleText
	documentID := "scratch"
	if path := flag.Arg(0); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", path, err)
			return 1
		}
		text = string(data)
		documentID = path
	}

	client := app.NewClient(cfg, log)

	ui, err := newUI(documentID, text, cfg, client, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing terminal: %v\n", err)
		return 1
	}
	defer ui.Close()

	if err := ui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
