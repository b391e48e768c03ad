package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/buildflow/buildflow/export"
	"github.com/buildflow/buildflow/kit"
	"github.com/buildflow/buildflow/markup"
)

// RegisterMCP registers the editor tools on an MCP server, so an AI agent
// can inspect and edit designs through the same mutation path the HTTP API
// uses.
func (svc *Service) RegisterMCP(srv *mcp.Server, exp *export.Exporter) {
	svc.registerListTool(srv)
	svc.registerGetTool(srv)
	svc.registerSetClassesTool(srv)
	svc.registerSetTextTool(srv)
	svc.registerSetAttributeTool(srv)
	svc.registerMoveTool(srv)
	svc.registerRemoveTool(srv)
	svc.registerExportTool(srv, exp)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var designProp = map[string]any{"type": "string", "description": "Design ID"}
var elementProp = map[string]any{"type": "string", "description": "Element identifier (data-bf-id value)"}

// --- list ---

func (svc *Service) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_list_designs",
		Description: "List all stored designs (IDs, names, timestamps).",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.store.List(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- get ---

type getDesignReq struct {
	DesignID string `json:"design_id"`
}

func (svc *Service) registerGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_get_design",
		Description: "Get a design's current tagged markup document for editing.",
		InputSchema: inputSchema(map[string]any{
			"design_id": designProp,
		}, []string{"design_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getDesignReq)
		s, err := svc.Open(ctx, r.DesignID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"design_id": r.DesignID, "document": s.Document()}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r getDesignReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- set classes ---

type setClassesReq struct {
	DesignID  string `json:"design_id"`
	ElementID string `json:"element_id"`
	Classes   string `json:"classes"`
}

func (svc *Service) registerSetClassesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_set_classes",
		Description: "Replace an element's utility class list.",
		InputSchema: inputSchema(map[string]any{
			"design_id":  designProp,
			"element_id": elementProp,
			"classes":    map[string]any{"type": "string", "description": "New space-separated class list"},
		}, []string{"design_id", "element_id", "classes"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*setClassesReq)
		changed, _, err := svc.Apply(ctx, r.DesignID, "set_classes", func(s *Session) bool {
			return s.SetClasses(r.ElementID, r.Classes)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r setClassesReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- set text ---

type setTextReq struct {
	DesignID  string `json:"design_id"`
	ElementID string `json:"element_id"`
	Text      string `json:"text"`
	OldText   string `json:"old_text,omitempty"`
}

func (svc *Service) registerSetTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_set_text",
		Description: "Replace an element's text content. For elements mixing text with children, old_text must match the text to replace.",
		InputSchema: inputSchema(map[string]any{
			"design_id":  designProp,
			"element_id": elementProp,
			"text":       map[string]any{"type": "string", "description": "New text content"},
			"old_text":   map[string]any{"type": "string", "description": "Exact text to replace (required for mixed content)"},
		}, []string{"design_id", "element_id", "text"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*setTextReq)
		changed, _, err := svc.Apply(ctx, r.DesignID, "set_text", func(s *Session) bool {
			return s.SetText(r.ElementID, r.Text, r.OldText)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r setTextReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- set attribute ---

type setAttributeReq struct {
	DesignID  string `json:"design_id"`
	ElementID string `json:"element_id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

func (svc *Service) registerSetAttributeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_set_attribute",
		Description: "Set one attribute on an element. Attributes bound to variable expressions are refused (changed=false).",
		InputSchema: inputSchema(map[string]any{
			"design_id":  designProp,
			"element_id": elementProp,
			"name":       map[string]any{"type": "string", "description": "Attribute name"},
			"value":      map[string]any{"type": "string", "description": "Attribute value"},
		}, []string{"design_id", "element_id", "name", "value"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*setAttributeReq)
		changed, _, err := svc.Apply(ctx, r.DesignID, "set_attribute", func(s *Session) bool {
			return s.SetAttribute(r.ElementID, r.Name, r.Value)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r setAttributeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- move ---

type moveReq struct {
	DesignID  string `json:"design_id"`
	ElementID string `json:"element_id"`
	TargetID  string `json:"target_id"`
	Position  string `json:"position"`
}

func (svc *Service) registerMoveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_move_element",
		Description: "Move an element before or after a sibling element.",
		InputSchema: inputSchema(map[string]any{
			"design_id":  designProp,
			"element_id": elementProp,
			"target_id":  map[string]any{"type": "string", "description": "Identifier of the element to move relative to"},
			"position":   map[string]any{"type": "string", "enum": []string{"before", "after"}},
		}, []string{"design_id", "element_id", "target_id", "position"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*moveReq)
		pos := markup.After
		if r.Position == "before" {
			pos = markup.Before
		}
		changed, _, err := svc.Apply(ctx, r.DesignID, "move_element", func(s *Session) bool {
			return s.MoveElement(r.ElementID, r.TargetID, pos)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r moveReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- remove ---

type removeReq struct {
	DesignID  string `json:"design_id"`
	ElementID string `json:"element_id"`
}

func (svc *Service) registerRemoveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "buildflow_remove_element",
		Description: "Remove an element (and its descendants) from a design.",
		InputSchema: inputSchema(map[string]any{
			"design_id":  designProp,
			"element_id": elementProp,
		}, []string{"design_id", "element_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*removeReq)
		changed, _, err := svc.Apply(ctx, r.DesignID, "remove_element", func(s *Session) bool {
			return s.RemoveElement(r.ElementID)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r removeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- export ---

type exportReq struct {
	DesignID string `json:"design_id"`
	Format   string `json:"format"`
}

func (svc *Service) registerExportTool(srv *mcp.Server, exp *export.Exporter) {
	tool := &mcp.Tool{
		Name:        "buildflow_export",
		Description: "Export a design as a standalone HTML document or Markdown. PDF and image exports need the HTTP API (they render in a browser).",
		InputSchema: inputSchema(map[string]any{
			"design_id": designProp,
			"format":    map[string]any{"type": "string", "enum": []string{"html", "markdown"}},
		}, []string{"design_id", "format"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*exportReq)
		d, err := svc.store.LoadRaw(ctx, r.DesignID)
		if err != nil {
			return nil, err
		}

		var content string
		switch r.Format {
		case "markdown":
			content, err = exp.Markdown(d.Document)
		case "html":
			content, err = exp.HTML(d.Name, d.Document)
		default:
			return nil, fmt.Errorf("editor: unsupported export format %q", r.Format)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"format": r.Format, "content": content}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r exportReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
