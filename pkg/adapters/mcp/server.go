package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/render"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/aretw0/coach/pkg/script"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"
)

// ScriptURI is the resource exposing the loaded conversation states.
const ScriptURI = "coach://script"

// TurnResponse is the structured output of every conversation tool.
type TurnResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"Identifier to pass to the following calls"`
	StateID   string         `json:"state_id,omitempty" jsonschema_description:"Current state of the script"`
	Events    []render.Event `json:"events" jsonschema_description:"What the visitor would see, in order"`
	Session   map[string]any `json:"session,omitempty" jsonschema_description:"Collected session fields"`
	Ended     bool           `json:"ended,omitempty" jsonschema_description:"True once the session was removed"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type messageArgs struct {
	SessionID string `mapstructure:"session_id"`
	Text      string `mapstructure:"text"`
}

type cardArgs struct {
	SessionID string `mapstructure:"session_id"`
	Index     int    `mapstructure:"index"`
}

// Server exposes a runner.Service as MCP tools.
type Server struct {
	service   *runner.Service
	script    *script.Script
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server named coach-mcp.
func NewServer(service *runner.Service, sc *script.Script, version string, opts ...Option) *Server {
	s := &Server{
		service:   service,
		script:    sc,
		mcpServer: server.NewMCPServer("coach-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new qualification conversation and return its opening messages."),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send what the visitor typed or the quick reply they picked."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Visitor message")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("select_card",
		mcp.WithDescription("Select a story from the carousel shown last, by zero-based index."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based card index")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectCard))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Discard a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to end")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnd))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	turn, err := s.service.Start(ctx)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return toResponse(turn)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	var in messageArgs
	if err := decodeArgs(args, &in); err != nil {
		return TurnResponse{}, err
	}
	turn, err := s.service.Input(ctx, in.SessionID, in.Text)
	if err != nil {
		s.logger.Warn("MCP send_message failed", "session_id", in.SessionID, "err", err)
		return TurnResponse{}, fmt.Errorf("send_message failed: %w", err)
	}
	return toResponse(turn)
}

func (s *Server) handleSelectCard(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	var in cardArgs
	if err := decodeArgs(args, &in); err != nil {
		return TurnResponse{}, err
	}
	turn, err := s.service.SelectCard(ctx, in.SessionID, in.Index)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("select_card failed: %w", err)
	}
	return toResponse(turn)
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return TurnResponse{}, err
	}
	if err := s.service.End(ctx, in.SessionID); err != nil {
		return TurnResponse{}, fmt.Errorf("end_session failed: %w", err)
	}
	return TurnResponse{SessionID: in.SessionID, Events: []render.Event{}, Ended: true}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ScriptURI, "Conversation Script",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(domain.FlowDocument{Start: s.script.Start(), States: s.script.States()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode script: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ScriptURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// decodeArgs maps tool arguments onto a typed struct. JSON numbers arrive as
// float64 and are narrowed to int by mapstructure.
func decodeArgs(args map[string]interface{}, dst any) error {
	if err := mapstructure.Decode(args, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if id, ok := args["session_id"]; !ok || id == "" {
		return fmt.Errorf("invalid arguments: session_id is required")
	}
	return nil
}

func toResponse(turn *runner.Turn) (TurnResponse, error) {
	out := TurnResponse{Events: turn.Events, Ended: turn.Ended}
	if out.Events == nil {
		out.Events = []render.Event{}
	}
	if turn.Session != nil {
		out.SessionID = turn.Session.ID
		out.StateID = turn.Session.StateID
		if err := mapstructure.Decode(turn.Session, &out.Session); err != nil {
			return TurnResponse{}, fmt.Errorf("failed to encode session: %w", err)
		}
	}
	return out, nil
}
