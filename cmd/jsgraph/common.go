package main

import (
	"context"
	"time"

	"github.com/ludo-technologies/jsgraph/app"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/config"
	"github.com/ludo-technologies/jsgraph/internal/logging"
	"github.com/ludo-technologies/jsgraph/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every analysis command
type globalOptions struct {
	configFile string
	format     string
	outputPath string
	storage    string
	dbPath     string
	logLevel   string
	noProgress bool
}

func (o *globalOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configFile, "config", "c", "", "Configuration file path")
	flags.StringVarP(&o.format, "format", "f", "", "Output format: text, json, yaml (graph also accepts dot)")
	flags.StringVarP(&o.outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	flags.StringVar(&o.storage, "storage", "", "Graph storage backend: memory or persistent")
	flags.StringVar(&o.dbPath, "db", "", "Database file for the persistent backend (implies --storage persistent)")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&o.noProgress, "no-progress", false, "Disable progress bars")
}

// session is the configuration and services for one command invocation
type session struct {
	cfg      *config.Config
	log      *logrus.Logger
	progress domain.ProgressManager
	format   domain.OutputFormat
	output   app.OutputOptions
	files    *app.FileHelper
}

// newSession loads configuration for the analyzed paths and applies flag overrides.
// defaultFormat replaces a text format for commands that cannot render text.
func (o *globalOptions) newSession(cmd *cobra.Command, paths []string, defaultFormat domain.OutputFormat, overrides service.ConfigOverrides) (*session, error) {
	target := ""
	if len(paths) > 0 {
		target = paths[0]
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		overrides.Format = &o.format
	}
	if flags.Changed("storage") {
		overrides.Backend = &o.storage
	}
	if flags.Changed("db") {
		overrides.DBPath = &o.dbPath
	}
	if flags.Changed("log-level") {
		overrides.LogLevel = &o.logLevel
	}

	cfg, err := service.NewConfigurationLoader().Load(o.configFile, target, overrides)
	if err != nil {
		return nil, err
	}

	format, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	if defaultFormat != "" && format == domain.OutputFormatText && !flags.Changed("format") {
		format = defaultFormat
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}

	files := &app.FileHelper{Stdout: cmd.OutOrStdout()}

	return &session{
		cfg:      cfg,
		log:      log,
		progress: service.NewProgressManager(!o.noProgress && format == domain.OutputFormatText && o.outputPath == ""),
		format:   format,
		output:   app.OutputOptions{Format: format, Path: o.outputPath},
		files:    files,
	}, nil
}

// context bounds the run by performance.timeout_seconds
func (s *session) context(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Performance.TimeoutSeconds <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, time.Duration(s.cfg.Performance.TimeoutSeconds)*time.Second)
}

func (s *session) graphService() *service.GraphServiceImpl {
	return service.NewGraphService(s.cfg, s.progress, s.log)
}

func (s *session) reportService() *service.ReportServiceImpl {
	return service.NewReportService(&s.cfg.Performance, s.progress, s.log)
}

func (s *session) formatter() *service.OutputFormatterImpl {
	return service.NewOutputFormatter(s.cfg.Output.ShowDetails)
}

func (s *session) analyzeUseCase() (*app.AnalyzeUseCase, error) {
	return app.NewAnalyzeUseCaseBuilder().
		WithGraphBuilder(s.graphService()).
		WithReportGenerator(s.reportService()).
		WithFormatter(s.formatter()).
		WithFileHelper(s.files).
		Build()
}

func (s *session) inspectUseCase() *app.InspectUseCase {
	return app.NewInspectUseCase(s.graphService(), s.reportService(), s.formatter(), s.files)
}

// Close stops progress rendering
func (s *session) Close() {
	s.progress.Close()
}
