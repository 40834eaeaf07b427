package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ferrostack/pagemend/kit"
)

// RegisterMCP registers the editing tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerSlotsTool(srv)
	s.registerReplaceTool(srv)
	s.registerInstructTool(srv)
	s.registerApplyEditsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
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

// --- page_slots ---

type slotsRequest struct {
	PageKey string `json:"page_key"`
}

func (s *Service) registerSlotsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_slots",
		Description: "List the editable text, link, and image slots of a page as a flat dictionary.",
		InputSchema: inputSchema(map[string]any{
			"page_key": map[string]any{"type": "string", "description": "Page key"},
		}, []string{"page_key"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*slotsRequest)
		return s.Slots(ctx, r.PageKey)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r slotsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- page_replace ---

type replaceRequest struct {
	PageKey     string `json:"page_key"`
	Find        string `json:"find"`
	Replacement string `json:"replacement"`
}

func (s *Service) registerReplaceTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_replace",
		Description: "Find and replace text on a page. Replaces only when exactly one slot matches; otherwise returns not_found or ambiguous with candidates.",
		InputSchema: inputSchema(map[string]any{
			"page_key":    map[string]any{"type": "string", "description": "Page key"},
			"find":        map[string]any{"type": "string", "description": "Text to find (matched on normalised content)"},
			"replacement": map[string]any{"type": "string", "description": "Replacement text"},
		}, []string{"page_key", "find"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*replaceRequest)
		return s.Replace(ctx, r.PageKey, r.Find, r.Replacement)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r replaceRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- page_instruct ---

type instructRequest struct {
	PageKey     string `json:"page_key"`
	Instruction string `json:"instruction"`
}

func (s *Service) registerInstructTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_instruct",
		Description: "Apply a natural-language editing instruction to a page via the edit-proposal service. Returns applied and failed edits.",
		InputSchema: inputSchema(map[string]any{
			"page_key":    map[string]any{"type": "string", "description": "Page key"},
			"instruction": map[string]any{"type": "string", "description": "What to change, in plain language"},
		}, []string{"page_key", "instruction"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*instructRequest)
		return s.Instruct(ctx, r.PageKey, r.Instruction)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r instructRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- page_apply_edits ---

type applyEditsRequest struct {
	PageKey string `json:"page_key"`
	Edits   []any  `json:"edits"`
}

func (s *Service) registerApplyEditsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_apply_edits",
		Description: "Apply a batch of structured edits to a page. Each edit targets a node by id or path and carries a text, link, or image payload. Partial application; per-edit failures are reported.",
		InputSchema: inputSchema(map[string]any{
			"page_key": map[string]any{"type": "string", "description": "Page key"},
			"edits":    map[string]any{"type": "array", "items": map[string]any{"type": "object"}, "description": "Edit objects (id or path, plus text/url/image payload)"},
		}, []string{"page_key", "edits"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*applyEditsRequest)
		if len(r.Edits) == 0 {
			return nil, fmt.Errorf("%w: edits is required", ErrInvalidInput)
		}
		return s.ApplyEdits(ctx, r.PageKey, r.Edits)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r applyEditsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
