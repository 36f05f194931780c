package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/service"
)

// GraphBuilder loads source trees into a module graph
type GraphBuilder interface {
	Build(ctx context.Context, paths []string) (*service.BuildResult, error)
}

// ReportGenerator computes reports over a built graph
type ReportGenerator interface {
	Analyze(ctx context.Context, build *service.BuildResult, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error)
	Chains(ctx context.Context, build *service.BuildResult, target string) (*domain.ChainsResponse, error)
	Deps(ctx context.Context, build *service.BuildResult, req domain.DepsRequest) (*domain.DepsResponse, error)
	Stats(ctx context.Context, build *service.BuildResult) (*domain.StatsResponse, error)
	GraphView(ctx context.Context, build *service.BuildResult) (*domain.GraphView, error)
}

// OutputOptions selects the report format and destination
type OutputOptions struct {
	Format domain.OutputFormat

	// Writer takes precedence over Path
	Writer io.Writer

	// Path is the output file; empty means stdout
	Path string
}

// AnalyzeUseCase orchestrates a dead-code analysis run
type AnalyzeUseCase struct {
	graphs     GraphBuilder
	reports    ReportGenerator
	formatter  *service.OutputFormatterImpl
	fileHelper *FileHelper
}

// Execute builds the graph, computes the selected sections and writes the report
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest, out OutputOptions) (*domain.AnalyzeResponse, error) {
	sections, err := domain.ParseSections(req.Sections)
	if err != nil {
		return nil, err
	}
	req.Sections = sections
	if req.SortBy == "" {
		req.SortBy = domain.SortByPath
	}

	build, err := buildGraph(ctx, uc.graphs, uc.fileHelper, req.Paths)
	if err != nil {
		return nil, err
	}
	defer build.Close()

	resp, err := uc.reports.Analyze(ctx, build, req)
	if err != nil {
		return nil, err
	}

	if err := uc.fileHelper.WithOutput(out, func(w io.Writer) error {
		return uc.formatter.WriteAnalyze(resp, out.Format, w)
	}); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return resp, nil
}

func buildGraph(ctx context.Context, graphs GraphBuilder, files *FileHelper, paths []string) (*service.BuildResult, error) {
	resolved, err := files.ResolvePaths(paths)
	if err != nil {
		return nil, err
	}
	build, err := graphs.Build(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to build module graph: %w", err)
	}
	return build, nil
}

// AnalyzeUseCaseBuilder builds an AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	graphs     GraphBuilder
	reports    ReportGenerator
	formatter  *service.OutputFormatterImpl
	fileHelper *FileHelper
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithGraphBuilder sets the graph build service
func (b *AnalyzeUseCaseBuilder) WithGraphBuilder(graphs GraphBuilder) *AnalyzeUseCaseBuilder {
	b.graphs = graphs
	return b
}

// WithReportGenerator sets the report service
func (b *AnalyzeUseCaseBuilder) WithReportGenerator(reports ReportGenerator) *AnalyzeUseCaseBuilder {
	b.reports = reports
	return b
}

// WithFormatter sets the output formatter
func (b *AnalyzeUseCaseBuilder) WithFormatter(formatter *service.OutputFormatterImpl) *AnalyzeUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithFileHelper sets the file helper
func (b *AnalyzeUseCaseBuilder) WithFileHelper(fh *FileHelper) *AnalyzeUseCaseBuilder {
	b.fileHelper = fh
	return b
}

// Build creates the AnalyzeUseCase
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	if b.graphs == nil {
		return nil, fmt.Errorf("graph builder is required")
	}
	if b.reports == nil {
		return nil, fmt.Errorf("report generator is required")
	}

	uc := &AnalyzeUseCase{
		graphs:     b.graphs,
		reports:    b.reports,
		formatter:  b.formatter,
		fileHelper: b.fileHelper,
	}
	if uc.formatter == nil {
		uc.formatter = service.NewOutputFormatter(true)
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	return uc, nil
}
