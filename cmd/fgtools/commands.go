package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"fgtools.fluvialgeomorph.org/internal/app"
	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/tools"
)

// cli carries the global flags and the application built from them for one
// invocation.
type cli struct {
	configPath string
	workspace  string
	env        string
	logLevel   string
	logFormat  string

	out    io.Writer
	errOut io.Writer

	cfg   app.FileConfig
	app   *app.Application
	tools *tools.Tools
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{out: stdout, errOut: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil {
			logging.LogError(c.app.Logger, "failed to close workspace", cerr)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fgtools",
		Short: "Fluvial geomorphology tools over a SQLite workspace",
		Long: `fgtools imports flowlines, banklines, loop points and cross sections into a
workspace, places measured stations along them and derives river position,
watershed area and meander loop assignments.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&c.workspace, "workspace", "", "workspace database file (overrides the config file)")
	flags.StringVar(&c.env, "env", "", "environment (development|test|production)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&c.logFormat, "log-format", "", "log format (text|json)")

	root.AddCommand(
		c.importLinesCmd(),
		c.importLoopPointsCmd(),
		c.importCrossSectionsCmd(),
		c.importPointsCmd(),
		c.flowlinePointsCmd(),
		c.xsStationPointsCmd(),
		c.banklinePointsCmd(),
		c.xsLayoutCmd(),
		c.xsRiverPositionCmd(),
		c.xsWatershedAreaCmd(),
		c.xsResequenceCmd(),
		c.xsAssignLoopsCmd(),
		c.xsCheckCmd(),
		c.contributingAreaCmd(),
		c.streamNetworkCmd(),
		c.exportCmd(),
		c.datasetsCmd(),
		c.dropCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and opens the
// workspace.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.workspace != "" {
		cfg.Workspace = c.workspace
	}
	if c.env != "" {
		cfg.Env = c.env
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}

	logger, err := newLogger(c.errOut, cfg.Log)
	if err != nil {
		return err
	}

	env := appconf.EnvFlagToEnvironment(cfg.Env)
	application, err := app.New(cfg, env, logger)
	if err != nil {
		return fmt.Errorf("failed to open workspace %s: %w", cfg.Workspace, err)
	}
	c.cfg = cfg
	c.app = application
	c.tools = tools.New(application)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	logger.Debug("workspace opened",
		slog.String("component", "cli"),
		slog.String("workspace", cfg.Workspace),
		slog.String("env", env.String()),
		slog.String("run_id", application.Workspace.RunID()))
	return nil
}

func newLogger(w io.Writer, cfg app.LogConfig) (*slog.Logger, error) {
	level, err := app.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return logging.NewTextLogger(w, level), nil
	case "json":
		return logging.NewStructuredLogger(w, level), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// floatOption returns the flag value when it was given and fallback
// otherwise.
func floatOption(cmd *cobra.Command, name string, fallback float64) float64 {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return fallback
	}
	return v
}

func intOption(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return fallback
	}
	return v
}

func stringOption(cmd *cobra.Command, name, fallback string) string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return fallback
	}
	return v
}
