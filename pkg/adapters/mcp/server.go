package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/presentation/graph"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/aretw0/majbot/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the Mermaid rendering of the definition.
const GraphURI = "majbot://graph"

// Conversations is the session surface exposed as tools. *session.Manager satisfies it.
type Conversations interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, string, error)
	Message(ctx context.Context, sessionID string) (string, error)
	Send(ctx context.Context, sessionID, text string) (string, error)
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
}

// TurnResult is the structured output of every conversation tool.
type TurnResult struct {
	SessionID string `json:"session_id" jsonschema_description:"Session the reply belongs to"`
	Level     string `json:"level" jsonschema_description:"Current state id after the call"`
	Reply     string `json:"reply" jsonschema_description:"Text the bot answered"`
}

// SessionArgs addresses an existing (or, for start_session, optional) session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// SendArgs is the input of send_message.
type SendArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Server exposes conversations as an MCP server.
type Server struct {
	conv      Conversations
	graph     ports.Inspectable
	mcpServer *server.MCPServer
	logger    *slog.Logger
	maxInput  int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGraph exposes the definition through get_graph and the GraphURI resource.
func WithGraph(g ports.Inspectable) Option {
	return func(s *Server) {
		s.graph = g
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(conv Conversations, version string, opts ...Option) *Server {
	s := &Server{
		conv:      conv,
		mcpServer: server.NewMCPServer("majbot-mcp", version),
		logger:    logging.NewNop(),
		maxInput:  runner.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.graph != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
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
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a conversation, or resume it when the session already exists. Returns the opening prompt."),
		mcp.WithString("session_id", mcp.Description("Session to start or resume (generated when omitted)")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send one user utterance to a session and return the bot reply."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_session")),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user says")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleSend))

	s.mcpServer.AddTool(mcp.NewTool("get_message",
		mcp.WithDescription("Return the prompt the session currently shows."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleMessage))

	if s.graph != nil {
		s.mcpServer.AddTool(mcp.NewTool("get_graph",
			mcp.WithDescription("Get the conversation definition as a Mermaid flowchart."),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(graph.GenerateMermaid(s.graph.States(), nil)), nil
		})
	}
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TurnResult, error) {
	sess, prompt, err := s.conv.Start(ctx, args.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("start failed: %w", err)
	}
	return TurnResult{SessionID: sess.ID, Level: sess.Level, Reply: prompt}, nil
}

func (s *Server) handleSend(ctx context.Context, request mcp.CallToolRequest, args SendArgs) (TurnResult, error) {
	if args.SessionID == "" {
		return TurnResult{}, errors.New("session_id is required")
	}

	clean, err := runner.SanitizeInput(args.Text, s.maxInput)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(args.Text))
		return TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}

	reply, err := s.conv.Send(ctx, args.SessionID, clean)
	if err != nil {
		s.logger.Error("MCP send_message: turn failed", "session_id", args.SessionID, "err", err)
		return TurnResult{}, fmt.Errorf("send failed: %w", err)
	}
	return TurnResult{SessionID: args.SessionID, Level: s.level(ctx, args.SessionID), Reply: reply}, nil
}

func (s *Server) handleMessage(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TurnResult, error) {
	msg, err := s.conv.Message(ctx, args.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("message failed: %w", err)
	}
	return TurnResult{SessionID: args.SessionID, Level: s.level(ctx, args.SessionID), Reply: msg}, nil
}

func (s *Server) level(ctx context.Context, id string) string {
	sess, err := s.conv.Load(ctx, id)
	if err != nil {
		return ""
	}
	return sess.Level
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation Definition",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.graph.States(), nil),
			},
		}, nil
	})
}
