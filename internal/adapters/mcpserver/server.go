// Package mcpserver exposes the aggregation queries, the KPI summary and the
// dashboard views as MCP tools over streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/okian/cupstats/pkg/metrics"
)

// Implementation identifies the server to MCP clients.
const (
	Name    = "cupstats"
	Version = "1.0.0"
)

// Tool names.
const (
	ToolListAggregates = "list_aggregates"
	ToolRunAggregate   = "run_aggregate"
	ToolKPISummary     = "kpi_summary"
	ToolRenderView     = "render_view"
)

// Backend answers the tool calls.
type Backend interface {
	Queries() []aggregate.Query
	Aggregate(ctx context.Context, name string, order aggregate.Order) (*aggregate.Aggregate, error)
	KPI(ctx context.Context) (aggregate.KPI, error)
	Render(ctx context.Context, v view.View) (*view.Screen, error)
}

// ListAggregatesArgs is the input schema of list_aggregates.
type ListAggregatesArgs struct{}

// RunAggregateArgs is the input schema of run_aggregate.
type RunAggregateArgs struct {
	Name  string `json:"name" jsonschema:"Aggregate name, e.g. hosts or goals-conceded (required)"`
	Order string `json:"order,omitempty" jsonschema:"Ranking order for ranked aggregates: literal or intent"`
}

// KPISummaryArgs is the input schema of kpi_summary.
type KPISummaryArgs struct{}

// RenderViewArgs is the input schema of render_view.
type RenderViewArgs struct {
	View string `json:"view" jsonschema:"View title or slug: home, dataset-info, visuals, insights (required)"`
}

// RunAggregateResult is the output of run_aggregate.
type RunAggregateResult struct {
	Aggregate *aggregate.Aggregate `json:"aggregate"`
	Warning   string               `json:"warning,omitempty"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server is the MCP tool server.
type Server struct {
	backend  Backend
	server   *mcp.Server
	registry []toolInfo
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New registers every tool against backend.
func New(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		server:  mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	addTool(s, &mcp.Tool{
		Name:        ToolListAggregates,
		Description: "List the aggregation queries with their source table and ranking support",
	}, s.listAggregates)

	addTool(s, &mcp.Tool{
		Name:        ToolRunAggregate,
		Description: "Run an aggregation and return its (key, metric) rows",
	}, s.runAggregate)

	addTool(s, &mcp.Tool{
		Name:        ToolKPISummary,
		Description: "Total matches, total goals, countries hosted and stadiums used",
	}, s.kpiSummary)

	addTool(s, &mcp.Tool{
		Name:        ToolRenderView,
		Description: "Render a dashboard view (Home, Dataset Info, Visuals, Insights) as structured content",
	}, s.renderView)

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.server }

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []string {
	out := make([]string, 0, len(s.registry))
	for _, t := range s.registry {
		out = append(out, t.Name)
	}
	return out
}

// Handler serves the tools over streamable HTTP with JSON responses.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.registry = append(s.registry, toolInfo{Name: tool.Name, Description: tool.Description})
	name := tool.Name
	mcp.AddTool(s.server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args T) (*mcp.CallToolResult, any, error) {
		res, out, err := handler(ctx, req, args)
		outcome := metrics.OutcomeOK
		if err != nil || (res != nil && res.IsError) {
			outcome = metrics.OutcomeError
		}
		metrics.RecordMCPToolCall(name, outcome)
		return res, out, err
	})
}

func (s *Server) listAggregates(_ context.Context, _ *mcp.CallToolRequest, _ ListAggregatesArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(s.backend.Queries())
}

func (s *Server) runAggregate(ctx context.Context, _ *mcp.CallToolRequest, args RunAggregateArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return toolError(fmt.Errorf("name is required")), nil, nil
	}
	var order aggregate.Order
	if args.Order != "" {
		o, err := aggregate.ParseOrder(args.Order)
		if err != nil {
			return toolError(err), nil, nil
		}
		order = o
	}

	a, err := s.backend.Aggregate(ctx, args.Name, order)
	switch {
	case err == nil:
		return toolJSON(RunAggregateResult{Aggregate: a})
	case aggregate.IsEmptyResult(err):
		return toolJSON(RunAggregateResult{Aggregate: a, Warning: err.Error()})
	default:
		s.logger.Warn(ctx, "tool failed", logger.String("tool", ToolRunAggregate), logger.Error(err))
		return toolError(err), nil, nil
	}
}

func (s *Server) kpiSummary(ctx context.Context, _ *mcp.CallToolRequest, _ KPISummaryArgs) (*mcp.CallToolResult, any, error) {
	kpi, err := s.backend.KPI(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(kpi)
}

func (s *Server) renderView(ctx context.Context, _ *mcp.CallToolRequest, args RenderViewArgs) (*mcp.CallToolResult, any, error) {
	v, err := view.ParseView(args.View)
	if err != nil {
		return toolError(err), nil, nil
	}
	screen, err := s.backend.Render(ctx, v)
	if err != nil {
		s.logger.Warn(ctx, "tool failed", logger.String("tool", ToolRenderView), logger.Error(err))
		return toolError(err), nil, nil
	}
	return toolJSON(screen)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
