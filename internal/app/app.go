package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/config"
	"github.com/vk/prodchain/internal/ctxlog"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/hcl"
	"github.com/vk/prodchain/internal/lang"
	"github.com/vk/prodchain/internal/metrics"
	"github.com/vk/prodchain/internal/model"
	"github.com/vk/prodchain/internal/report"
	"github.com/vk/prodchain/internal/resolver"
)

// ErrInvalidSource is returned, wrapped, when the source set fails to parse
// or resolve. The diagnostics have already been written to the error
// writer by then.
var ErrInvalidSource = errors.New("source set is invalid")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	errW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	recorder *metrics.Recorder
}

// NewLoader returns the loader for every supported surface syntax.
func NewLoader() *config.Dispatcher {
	return config.NewDispatcher(map[string]config.Parser{
		".pc":  config.ParserFunc(lang.Parse),
		".hcl": config.ParserFunc(hcl.Parse),
	})
}

// NewApp is the constructor for the main application. Results go to outW;
// logs and diagnostics go to errW.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")
	return &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		config:   cfg,
		loader:   NewLoader(),
		recorder: metrics.NewRecorder(),
	}
}

// Metrics returns the application's metrics recorder. This is primarily for testing.
func (a *App) Metrics() *metrics.Recorder {
	return a.recorder
}

// Run resolves the configured source set and writes the model in the
// configured output format.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx, "resolve")
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	m, err := a.resolve(ctx)
	if err != nil {
		return err
	}

	w, closeOut, err := a.output()
	if err != nil {
		return err
	}
	if err := a.writeModel(w, m); err != nil {
		closeOut()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// Check resolves the configured source set and reports only whether it is
// valid.
func (a *App) Check(ctx context.Context) error {
	ctx = a.context(ctx, "check")
	m, err := a.resolve(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.outW, "ok: %d machines, %d recipes, %d products\n",
		m.Len(), m.RecipeCount(), len(m.Products()))
	return err
}

// Format parses the configured source set and prints it in canonical
// native syntax. HCL sources are converted on the way.
func (a *App) Format(ctx context.Context) error {
	ctx = a.context(ctx, "fmt")
	bundle, err := a.load(ctx)
	if err != nil {
		return err
	}
	_, err = a.outW.Write(ast.Format(bundle.File))
	return err
}

// context attaches the app logger, tagged with the running command.
func (a *App) context(ctx context.Context, command string) context.Context {
	return ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "command", command)
}

func (a *App) load(ctx context.Context) (*config.Bundle, error) {
	logger := ctxlog.FromContext(ctx)
	bundle, err := a.loader.Load(ctx, a.config.Paths...)
	if err == nil {
		logger.Debug("Sources loaded.", "files", len(bundle.Files), "blocks", len(bundle.File.Blocks))
		return bundle, nil
	}
	if bundle == nil || len(diag.Flatten(err)) == 0 {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	if rerr := report.Errors(a.errW, err, bundle.Sources, a.reportOptions()); rerr != nil {
		logger.Error("Failed to write diagnostics.", "error", rerr)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidSource, diag.Flatten(err)[0].Kind())
}

func (a *App) resolve(ctx context.Context) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)
	bundle, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	r := resolver.New(resolver.Options{Workers: a.config.Workers, Observer: a.recorder})
	m, err := r.Resolve(ctx, bundle.File)
	a.writeMetrics(logger)
	if err == nil {
		logger.Info("Resolution succeeded.", "machines", m.Len(), "recipes", m.RecipeCount())
		return m, nil
	}

	errs := diag.Flatten(err)
	if len(errs) == 0 {
		return nil, err
	}
	if rerr := report.Errors(a.errW, err, bundle.Sources, a.reportOptions()); rerr != nil {
		logger.Error("Failed to write diagnostics.", "error", rerr)
	}
	return nil, fmt.Errorf("%w: %d errors", ErrInvalidSource, len(errs))
}

func (a *App) writeMetrics(logger *slog.Logger) {
	if a.config.MetricsFile == "" {
		return
	}
	if err := a.recorder.WriteFile(a.config.MetricsFile); err != nil {
		logger.Warn("Metrics not written.", "error", err)
	}
}

func (a *App) output() (io.Writer, func() error, error) {
	if a.config.OutputPath == "" {
		return a.outW, func() error { return nil }, nil
	}
	f, err := os.Create(a.config.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func (a *App) writeModel(w io.Writer, m *model.Model) error {
	switch a.config.OutputFormat {
	case "yaml":
		return model.Encode(w, m, model.FormatYAML)
	case "json":
		return model.Encode(w, m, model.FormatJSON)
	default:
		return report.Model(w, m, a.reportOptions())
	}
}

// reportOptions leaves diagnostics unwrapped; file paths in details are
// often longer than any sensible width.
func (a *App) reportOptions() report.Options {
	return report.Options{Color: a.config.Color}
}
