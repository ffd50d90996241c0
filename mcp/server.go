package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stockchat/config"
	"stockchat/metrics"
	"stockchat/registry"
)

// Server exposes every registered function as an MCP tool over stdio.
type Server struct {
	registry *registry.Registry
	metrics  *metrics.Metrics
	mcp      *server.MCPServer
}

func NewServer(reg *registry.Registry, m *metrics.Metrics, version string) *Server {
	s := &Server{
		registry: reg,
		metrics:  m,
		mcp:      server.NewMCPServer("stockchat", version, server.WithToolCapabilities(false)),
	}
	for _, spec := range reg.AllSpecs() {
		s.mcp.AddTool(ToolFromSpec(spec), s.handle(spec.Name))
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server ready with %d tools", len(reg.Names()))
	}
	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
		result, err := s.Call(ctx, name, req.GetArguments())
		s.metrics.ObserveFunction(name, err)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] %s failed: %v", name, err)
			}
			// Tool failures are reported in-band so the client model can see them
			return mcptypes.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}

// Call validates args against the named function, runs it, and wraps the
// outcome as an MCP result. Artifact functions return the written PNG inline.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) (*mcptypes.CallToolResult, error) {
	spec, handler, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	if args == nil {
		raw = nil
	}

	validated, err := registry.Validate(spec, string(raw))
	if err != nil {
		return nil, err
	}

	out, err := handler(ctx, validated)
	if err != nil {
		return nil, err
	}

	if spec.Category != registry.ArtifactProducing {
		return mcptypes.NewToolResultText(out), nil
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return mcptypes.NewToolResultImage(
		fmt.Sprintf("Chart written to %s", out),
		base64.StdEncoding.EncodeToString(data),
		"image/png",
	), nil
}
