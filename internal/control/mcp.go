package control

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/tobyv/a11yrelay/internal/flags"
)

// MCPConfig holds the control-plane MCP server configuration.
type MCPConfig struct {
	Transport string // "stdio" or "streamable-http"
	Port      int    // HTTP port for streamable-http
}

// MCPServer exposes the control-plane action set as MCP tools so an
// agent harness can toggle capture behavior at runtime.
type MCPServer struct {
	receiver *Receiver
	store    *flags.Store
	mcp      *mcpserver.MCPServer
}

// NewMCPServer creates the control-plane MCP server over the given
// receiver and its store.
func NewMCPServer(receiver *Receiver, store *flags.Store, version string) *MCPServer {
	s := &MCPServer{
		receiver: receiver,
		store:    store,
		mcp:      mcpserver.NewMCPServer("a11yrelay", version),
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport and blocks.
func (s *MCPServer) Serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *MCPServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool(ActionEnableCapture,
			mcp.WithDescription("Enable periodic UI capture and forwarding"),
		),
		s.handleSimple(ActionEnableCapture),
	)
	s.mcp.AddTool(
		mcp.NewTool(ActionDisableCapture,
			mcp.WithDescription("Disable periodic UI capture; an in-flight capture still completes"),
		),
		s.handleSimple(ActionDisableCapture),
	)
	s.mcp.AddTool(
		mcp.NewTool(ActionSetEndpoint,
			mcp.WithDescription("Set the remote controller endpoint. Omitted fields reset to defaults: host to the controller loopback alias, port to 0 (disabled)."),
			mcp.WithString("host", mcp.Description("Controller hostname or IP")),
			mcp.WithNumber("port", mcp.Description("Controller port; 0 or below disables forwarding")),
		),
		s.handleSetEndpoint,
	)
	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report the current capture flags"),
		),
		s.handleStatus,
	)
}

func (s *MCPServer) handleSimple(name string) mcpserver.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.receiver.Dispatch(Action{Name: name})
		return mcp.NewToolResultText("ok"), nil
	}
}

func (s *MCPServer) handleSetEndpoint(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := Action{Name: ActionSetEndpoint}
	if v, ok := params["host"]; ok {
		host := fmt.Sprintf("%v", v)
		action.Host = &host
	}
	if v, ok := params["port"]; ok {
		var port int
		switch n := v.(type) {
		case int:
			port = n
		case int64:
			port = int(n)
		case float64:
			port = int(n)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("port must be a number, got %T", v)), nil
		}
		action.Port = &port
	}
	s.receiver.Dispatch(action)
	return mcp.NewToolResultText("ok"), nil
}

func (s *MCPServer) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host, port := s.store.Endpoint()
	status := struct {
		CaptureEnabled bool   `yaml:"capture_enabled"`
		CapturePeriod  string `yaml:"capture_period"`
		RemoteHost     string `yaml:"remote_host"`
		RemotePort     int    `yaml:"remote_port"`
		Forwarding     bool   `yaml:"forwarding"`
	}{
		CaptureEnabled: s.store.CaptureEnabled(),
		CapturePeriod:  s.store.CapturePeriod().String(),
		RemoteHost:     host,
		RemotePort:     port,
		Forwarding:     s.store.EndpointEnabled(),
	}
	b, err := yaml.Marshal(status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
