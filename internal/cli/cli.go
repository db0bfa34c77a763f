package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/prodchain/internal/app"
)

const appName = "prodchain"

// flags holds the raw flag values shared by all commands.
type flags struct {
	configFile  string
	workers     int
	logLevel    string
	logFormat   string
	color       bool
	format      string
	output      string
	metricsFile string
}

// Execute runs the command line args. Failures come back as *ExitError;
// -h and --help print usage and return nil.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return usageError(err)
}

// NewRootCommand builds the command tree writing to outW and errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   appName,
		Short: "Resolve production chain declarations into machine recipe figures",
		Long: appName + ` reads producer, machine and product declarations from .pc and .hcl
files, resolves inheritance and recipe templates, and reports per-machine
recipe rates and power draw. Every resolution error is reported at once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "YAML config file; flags override its values")
	pf.IntVarP(&f.workers, "workers", "w", 0, "subtrees resolved concurrently (0 means one per CPU)")
	pf.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	pf.BoolVar(&f.color, "color", false, "color the text report and diagnostics")

	root.AddCommand(
		newResolveCommand(f, outW, errW),
		newCheckCommand(f, outW, errW),
		newFmtCommand(f, outW, errW),
	)
	return root
}

func newResolveCommand(f *flags, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [paths...]",
		Short: "Resolve sources and print every machine's recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, args, outW, errW)
			if err != nil {
				return err
			}
			return appError(a.Run(cmd.Context()))
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, yaml or json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the model to this file instead of stdout")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file")
	return cmd
}

func newCheckCommand(f *flags, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate sources without printing the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, args, outW, errW)
			if err != nil {
				return err
			}
			return appError(a.Check(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file")
	return cmd
}

func newFmtCommand(f *flags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Print sources in canonical native syntax",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, args, outW, errW)
			if err != nil {
				return err
			}
			return appError(a.Format(cmd.Context()))
		},
	}
}

// newApp merges the config file, the changed flags and the positional
// paths, in that order of precedence from lowest to highest.
func newApp(cmd *cobra.Command, f *flags, args []string, outW, errW io.Writer) (*app.App, error) {
	cfg := app.DefaultConfig()
	if f.configFile != "" {
		loaded, err := app.LoadConfigFile(f.configFile)
		if err != nil {
			return nil, usageError(err)
		}
		cfg = loaded
	}

	set := cmd.Flags()
	if set.Changed("workers") {
		cfg.Workers = f.workers
	}
	if set.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if set.Changed("color") {
		cfg.Color = f.color
	}
	if set.Changed("format") {
		cfg.OutputFormat = f.format
	}
	if set.Changed("output") {
		cfg.OutputPath = f.output
	}
	if set.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if len(args) > 0 {
		cfg.Paths = args
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(outW, errW, valid), nil
}

// appError maps an application failure to its exit code. Only an invalid
// source set exits with ExitInvalidSource; any other failure is ExitIO.
func appError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, app.ErrInvalidSource) {
		return &ExitError{Code: ExitInvalidSource, Message: err.Error()}
	}
	return &ExitError{Code: ExitIO, Message: err.Error()}
}
