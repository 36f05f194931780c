package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/service"
)

// GraphOptions controls graph rendering
type GraphOptions struct {
	// DOT configures the annotated DOT renderer
	DOT *service.DOTFormatterConfig

	// Plain renders the bare module graph without findings
	Plain bool
}

// InspectUseCase answers single questions about a module graph: chains, npm coverage, statistics and rendering
type InspectUseCase struct {
	graphs     GraphBuilder
	reports    ReportGenerator
	formatter  *service.OutputFormatterImpl
	fileHelper *FileHelper
}

// NewInspectUseCase creates an inspect use case
func NewInspectUseCase(graphs GraphBuilder, reports ReportGenerator, formatter *service.OutputFormatterImpl, fileHelper *FileHelper) *InspectUseCase {
	if formatter == nil {
		formatter = service.NewOutputFormatter(true)
	}
	if fileHelper == nil {
		fileHelper = NewFileHelper()
	}
	return &InspectUseCase{
		graphs:     graphs,
		reports:    reports,
		formatter:  formatter,
		fileHelper: fileHelper,
	}
}

// Chains reports how entry points reach req.Target
func (uc *InspectUseCase) Chains(ctx context.Context, req domain.ChainsRequest, out OutputOptions) (*domain.ChainsResponse, error) {
	if req.Target == "" {
		return nil, domain.NewConfigError("target", "a target module is required", nil)
	}
	build, err := buildGraph(ctx, uc.graphs, uc.fileHelper, req.Paths)
	if err != nil {
		return nil, err
	}
	defer build.Close()

	resp, err := uc.reports.Chains(ctx, build, req.Target)
	if err != nil {
		return nil, err
	}
	return resp, uc.write(out, func(w io.Writer) error {
		return uc.formatter.WriteChains(resp, out.Format, w)
	})
}

// Deps reports npm dependency coverage
func (uc *InspectUseCase) Deps(ctx context.Context, req domain.DepsRequest, out OutputOptions) (*domain.DepsResponse, error) {
	build, err := buildGraph(ctx, uc.graphs, uc.fileHelper, req.Paths)
	if err != nil {
		return nil, err
	}
	defer build.Close()

	resp, err := uc.reports.Deps(ctx, build, req)
	if err != nil {
		return nil, err
	}
	return resp, uc.write(out, func(w io.Writer) error {
		return uc.formatter.WriteDeps(resp, out.Format, w)
	})
}

// Stats reports graph statistics
func (uc *InspectUseCase) Stats(ctx context.Context, paths []string, out OutputOptions) (*domain.StatsResponse, error) {
	build, err := buildGraph(ctx, uc.graphs, uc.fileHelper, paths)
	if err != nil {
		return nil, err
	}
	defer build.Close()

	resp, err := uc.reports.Stats(ctx, build)
	if err != nil {
		return nil, err
	}
	return resp, uc.write(out, func(w io.Writer) error {
		return uc.formatter.WriteStats(resp, out.Format, w)
	})
}

// Graph renders the module graph as dot, json or yaml
func (uc *InspectUseCase) Graph(ctx context.Context, paths []string, opts GraphOptions, out OutputOptions) error {
	switch out.Format {
	case domain.OutputFormatDOT, domain.OutputFormatJSON, domain.OutputFormatYAML:
	default:
		return domain.NewConfigError("output.format",
			fmt.Sprintf("graph output supports dot, json and yaml, got %q", out.Format), nil)
	}

	build, err := buildGraph(ctx, uc.graphs, uc.fileHelper, paths)
	if err != nil {
		return err
	}
	defer build.Close()

	switch {
	case out.Format == domain.OutputFormatJSON && opts.Plain:
		data, err := build.Graph.ToJSON(ctx)
		if err != nil {
			return err
		}
		return uc.write(out, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, string(data))
			return err
		})
	case out.Format == domain.OutputFormatDOT && opts.Plain:
		dot, err := build.Graph.ToDOT(ctx)
		if err != nil {
			return err
		}
		return uc.write(out, func(w io.Writer) error {
			_, err := io.WriteString(w, dot)
			return err
		})
	}

	view, err := uc.reports.GraphView(ctx, build)
	if err != nil {
		return err
	}
	return uc.write(out, func(w io.Writer) error {
		switch out.Format {
		case domain.OutputFormatJSON:
			return service.WriteJSON(w, view)
		case domain.OutputFormatYAML:
			return service.WriteYAML(w, view)
		default:
			return service.NewDOTFormatter(opts.DOT).WriteGraph(view, w)
		}
	})
}

func (uc *InspectUseCase) write(out OutputOptions, write func(io.Writer) error) error {
	if err := uc.fileHelper.WithOutput(out, write); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
