// Command helixcanvas serves the sequence workspace over HTTP and exposes the
// parsers and analytics as one-shot subcommands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"helixcanvas/internal/config"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// app carries what every subcommand needs once flags and configuration have
// been resolved.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	logLevel   string
	trace      bool
	cfg        config.Config
	logger     *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "helixcanvas",
		Short:         "Genomic sequence workspace: parsers, analytics and an HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&a.trace, "trace", false, "write operation spans to stderr as JSON lines")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newParseCmd(a),
		newAnalyzeCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.LogLevel)
	a.logger.Debug("loaded config",
		"storage_driver", cfg.Storage.Driver,
		"blob_driver", cfg.Blob.Driver,
		"workers", cfg.Workers,
		"http_addr", cfg.HTTPAddr,
	)
	return nil
}
