// Command cbapi fetches Crunchbase organizations and people through RapidAPI
// and writes them as CSV, JSON, XLSX or into Redis.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/crunchbase-client/pkg/config"
	"github.com/Sternrassler/crunchbase-client/pkg/logging"
)

// app carries state shared by all subcommands.
type app struct {
	cfgFile   string
	logLevel  string
	logPretty bool

	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "cbapi",
		Short: "cbapi - fetch Crunchbase data through RapidAPI",
		Long: `cbapi queries the Crunchbase organizations and people collections,
fetches every page concurrently and writes the merged result to a file,
stdout or Redis.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $HOME/"+config.FileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	root.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "human-readable log output")

	root.AddCommand(
		newOrganizationsCmd(a),
		newPeopleCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads configuration and sets up logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-pretty") {
		cfg.LogPretty = a.logPretty
	}
	a.cfg = cfg

	logging.Configure(cfg.LogLevel, cfg.LogPretty, a.stderr)
	return nil
}
