package footprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/quantself/kit"
)

// RegisterMCP registers footprint tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerScanTool(srv)
	s.registerExtractTool(srv)
	s.registerStatsTool(srv)
	s.registerRunsTool(srv)
	s.registerActivityTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

func (s *Service) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	mw := kit.Chain(kit.Logging(s.logger, tool.Name), kit.Recovery(s.logger))
	kit.RegisterMCPTool(srv, tool, mw(endpoint), decode)
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

// --- scan ---

func (s *Service) registerScanTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "footprint_scan_sources",
		Description: "Report where each source database (messages, chrome, knowledgeC, podcasts) was found, whether it is readable, its size and last modification time.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return map[string]any{"sources": s.ScanSources(ctx)}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	s.register(srv, tool, endpoint, decode)
}

// --- extract ---

type extractReq struct {
	Source string `json:"source"`
}

func (s *Service) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "footprint_extract",
		Description: "Extract one source, or every enabled source when source is empty or \"all\", into the unified database.",
		InputSchema: inputSchema(map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "Source to extract: messages, chrome, knowledgeC, podcasts or all",
			},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*extractReq)
		if r.Source == "" || r.Source == "all" {
			return s.ExtractAll(ctx)
		}
		k, err := ParseKind(r.Source)
		if err != nil {
			return nil, err
		}
		return s.ExtractSources(ctx, k)
	}

	s.register(srv, tool, endpoint, decodeInto[extractReq])
}

// --- stats ---

type statsReq struct {
	OutputDir string `json:"output_dir"`
}

func (s *Service) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "footprint_store_stats",
		Description: "Count records per table in the unified database and report the earliest and latest record time.",
		InputSchema: inputSchema(map[string]any{
			"output_dir": map[string]any{
				"type":        "string",
				"description": "Directory holding unified.db (default: configured output dir)",
			},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*statsReq)
		return s.StoreStats(ctx, r.OutputDir)
	}

	s.register(srv, tool, endpoint, decodeInto[statsReq])
}

// --- runs ---

type runsReq struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
	RunID  string `json:"run_id"`
}

func (s *Service) registerRunsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "footprint_list_runs",
		Description: "List extraction runs from the ledger, newest first.",
		InputSchema: inputSchema(map[string]any{
			"source": map[string]any{"type": "string", "description": "Only runs of this source"},
			"limit":  map[string]any{"type": "integer", "description": "Max rows (default 50)"},
			"run_id": map[string]any{"type": "string", "description": "Return only this run"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*runsReq)
		if r.RunID != "" {
			run, err := s.GetRun(ctx, r.RunID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"runs": []*Run{run}}, nil
		}
		runs, err := s.ListRuns(ctx, r.Source, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": runs}, nil
	}

	s.register(srv, tool, endpoint, decodeInto[runsReq])
}

// --- activity ---

type activityReq struct {
	Days      int    `json:"days"`
	Since     string `json:"since"`
	Until     string `json:"until"`
	Limit     int    `json:"limit"`
	OutputDir string `json:"output_dir"`
}

func (r *activityReq) query(now time.Time) (ActivityQuery, error) {
	q := ActivityQuery{Limit: r.Limit, Dir: r.OutputDir}
	if r.Days < 0 {
		return q, errors.New("days must not be negative")
	}
	if r.Days > 0 {
		q.Since = now.AddDate(0, 0, -r.Days)
	}
	for _, f := range []struct {
		raw string
		dst *time.Time
	}{{r.Since, &q.Since}, {r.Until, &q.Until}} {
		if f.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			return q, fmt.Errorf("parse %q: %w", f.raw, err)
		}
		*f.dst = t
	}
	return q, nil
}

func (s *Service) registerActivityTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "footprint_activity",
		Description: "Summarize activity from the unified database: screen time and top apps, browsing domains and transitions, message counts, podcast listening and Bluetooth devices.",
		InputSchema: inputSchema(map[string]any{
			"days":       map[string]any{"type": "integer", "description": "Only the last N days (0: all time)"},
			"since":      map[string]any{"type": "string", "description": "RFC 3339 start, overrides days"},
			"until":      map[string]any{"type": "string", "description": "RFC 3339 end (exclusive)"},
			"limit":      map[string]any{"type": "integer", "description": "Max entries per ranked list (default 10)"},
			"output_dir": map[string]any{"type": "string", "description": "Directory holding unified.db (default: configured output dir)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q, err := req.(*activityReq).query(time.Now())
		if err != nil {
			return nil, err
		}
		return s.Activity(ctx, q)
	}

	s.register(srv, tool, endpoint, decodeInto[activityReq])
}
