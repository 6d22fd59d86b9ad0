package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing known sessions.
const SessionsURI = "waypoint://sessions"

// LocationResponse is the result of every navigation tool.
type LocationResponse struct {
	Session  string          `json:"session" jsonschema_description:"Session the history belongs to"`
	Action   domain.Action   `json:"action" jsonschema_description:"How the current location became current: PUSH, REPLACE or POP"`
	Location domain.Location `json:"location" jsonschema_description:"The current location"`
	Index    int             `json:"index" jsonschema_description:"Position of the current location in the stack"`
	Href     string          `json:"href" jsonschema_description:"Address of the current location"`
}

// Server exposes the histories of a session manager as MCP tools.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("waypoint-mcp", strings.TrimSpace(waypoint.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	sessionArg := mcp.WithString("session", mcp.Required(), mcp.Description("Session ID"))

	s.mcpServer.AddTool(mcp.NewTool("push",
		mcp.WithDescription("Push a new entry onto the history stack of a session."),
		sessionArg,
		mcp.WithString("to", mcp.Required(), mcp.Description("Target address, absolute or relative to the current location")),
		mcp.WithString("state", mcp.Description("JSON value to attach to the new entry (optional)")),
		mcp.WithOutputSchema[LocationResponse](),
	), mcp.NewStructuredToolHandler(s.handlePush))

	s.mcpServer.AddTool(mcp.NewTool("replace",
		mcp.WithDescription("Replace the current entry of a session."),
		sessionArg,
		mcp.WithString("to", mcp.Required(), mcp.Description("Target address, absolute or relative to the current location")),
		mcp.WithString("state", mcp.Description("JSON value to attach to the entry (optional)")),
		mcp.WithOutputSchema[LocationResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplace))

	s.mcpServer.AddTool(mcp.NewTool("go",
		mcp.WithDescription("Move relative to the current entry. Negative deltas go back."),
		sessionArg,
		mcp.WithNumber("delta", mcp.Required(), mcp.Description("Number of entries to move")),
		mcp.WithOutputSchema[LocationResponse](),
	), mcp.NewStructuredToolHandler(s.handleGo))

	s.mcpServer.AddTool(mcp.NewTool("location",
		mcp.WithDescription("Get the current location of a session."),
		sessionArg,
		mcp.WithOutputSchema[LocationResponse](),
	), mcp.NewStructuredToolHandler(s.handleLocation))
}

func (s *Server) handlePush(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LocationResponse, error) {
	return s.navigate(ctx, args, func(ctx context.Context, h *waypoint.History, to string, state any) error {
		return h.Push(ctx, to, state)
	})
}

func (s *Server) handleReplace(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LocationResponse, error) {
	return s.navigate(ctx, args, func(ctx context.Context, h *waypoint.History, to string, state any) error {
		return h.Replace(ctx, to, state)
	})
}

func (s *Server) navigate(ctx context.Context, args map[string]interface{}, fn func(context.Context, *waypoint.History, string, any) error) (LocationResponse, error) {
	to, _ := args["to"].(string)
	if to == "" {
		return LocationResponse{}, fmt.Errorf("missing target")
	}

	var state any
	if raw, ok := args["state"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			// Plain text is kept as a string.
			state = raw
		}
	}

	return s.do(ctx, args, func(ctx context.Context, h *waypoint.History) error {
		return fn(ctx, h, to, state)
	})
}

func (s *Server) handleGo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LocationResponse, error) {
	var delta int
	switch v := args["delta"].(type) {
	case float64:
		delta = int(v)
	case int:
		delta = v
	default:
		return LocationResponse{}, domain.ErrInvalidDelta
	}
	return s.do(ctx, args, func(ctx context.Context, h *waypoint.History) error {
		return h.Go(ctx, delta)
	})
}

func (s *Server) handleLocation(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LocationResponse, error) {
	return s.do(ctx, args, func(context.Context, *waypoint.History) error { return nil })
}

func (s *Server) do(ctx context.Context, args map[string]interface{}, fn func(context.Context, *waypoint.History) error) (LocationResponse, error) {
	id, _ := args["session"].(string)
	if id == "" {
		return LocationResponse{}, fmt.Errorf("missing session")
	}

	var resp LocationResponse
	err := s.sessions.Do(ctx, id, func(ctx context.Context, h *waypoint.History) error {
		if err := fn(ctx, h); err != nil {
			return err
		}
		snap := h.Snapshot()
		resp = LocationResponse{
			Session:  id,
			Action:   snap.Action,
			Location: snap.Location,
			Index:    snap.Index,
			Href:     h.CreateHref(snap.Location.Path.String()),
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("MCP tool failed", "session_id", id, "err", err)
		return LocationResponse{}, err
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Known Sessions",
		mcp.WithMIMEType("application/json"),
	), s.readSessions)
}

func (s *Server) readSessions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
