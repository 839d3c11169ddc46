// Package mcp exposes every registered action as a Model Context Protocol
// tool.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/validation"
)

// DefaultName is the implementation name reported to clients.
const DefaultName = "action"

// Config configures the MCP server.
type Config struct {
	Name    string
	Version string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	manager   *action.Manager
}

// ToolError is the structured body of a failed tool call.
type ToolError struct {
	Kind    action.Kind           `json:"kind"`
	Message string                `json:"message"`
	Errors  validation.Violations `json:"errors,omitempty"`
}

// NewServer creates an MCP server with one tool per action registered on m
// at construction time.
func NewServer(m *action.Manager, cfg Config) (*Server, error) {
	if m == nil {
		return nil, errors.New("manager is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		manager:   m,
	}
	for name, h := range m.All() {
		mcp.AddTool(s.mcpServer, actionTool(h), s.toolHandler(name))
		log.Debug(log.CatMCP, "registered tool", "action", name)
	}
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// actionTool describes h as a tool taking an object argument. Handlers that
// list their payload fields get one property per field.
func actionTool(h action.Handler) *mcp.Tool {
	desc := h.Descriptor()
	schema := &jsonschema.Schema{Type: "object"}
	if fl, ok := h.(action.FieldLister); ok {
		fields := fl.PayloadFields()
		if len(fields) > 0 {
			schema.Properties = make(map[string]*jsonschema.Schema, len(fields))
			for _, f := range fields {
				schema.Properties[f] = &jsonschema.Schema{}
			}
		}
	}
	return &mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: schema,
	}
}

func (s *Server) toolHandler(name string) mcp.ToolHandlerFor[map[string]any, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
		if input == nil {
			input = map[string]any{}
		}

		result, err := s.manager.Execute(ctx, name, input)
		if err != nil {
			log.Debug(log.CatMCP, "tool call failed", "action", name, "error", err)
			return errorResult(err), nil, nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return nil, nil, fmt.Errorf("encode result of %s: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	body := ToolError{Kind: action.KindOf(err), Message: err.Error()}
	var ae *action.Error
	if errors.As(err, &ae) {
		body.Errors = ae.Fields
	}
	if body.Kind == "" {
		body.Kind = action.KindHandlerFailure
	}

	// ToolError always marshals
	data, _ := json.Marshal(body)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
