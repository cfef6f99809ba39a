// Package mcpserver implements an MCP server exposing the podman tools to a
// tool-calling agent. The primary transport is line-delimited JSON-RPC 2.0
// over stdio; a TCP mode with token authentication exists for debugging,
// where a client speaks the same protocol after an auth handshake.
package mcpserver

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/tools"
)

// ServerName and ServerVersion identify this server in the MCP handshake.
const (
	ServerName      = "podman-mcp"
	ServerVersion   = "1.0.0"
	protocolVersion = "2024-11-05"
)

// ToolCallRecord describes one completed tool call for observers such as
// the operation journal.
type ToolCallRecord struct {
	SessionID string
	Tool      string
	Arguments map[string]any
	Content   string
	Succeeded bool
	Duration  time.Duration
}

// ToolCallObserver receives a record after every tool call. Observers are
// best effort; they cannot affect the response.
type ToolCallObserver func(record ToolCallRecord)

// Server exposes the tool provider over stdio or TCP.
type Server struct {
	toolProvider *tools.ToolProvider
	logger       *logx.Logger
	sessionID    string
	observer     ToolCallObserver

	mu        sync.Mutex
	listener  net.Listener
	port      int
	authToken string
	running   bool
	cancel    context.CancelFunc
}

// NewServer creates a server around the given tool provider.
func NewServer(toolProvider *tools.ToolProvider, logger *logx.Logger) *Server {
	if logger == nil {
		logger = logx.NewLogger("mcp-server")
	}
	return &Server{
		toolProvider: toolProvider,
		logger:       logger,
		sessionID:    uuid.NewString(),
		authToken:    generateToken(),
	}
}

// SessionID returns the identifier attached to every tool-call record from
// this server instance.
func (s *Server) SessionID() string {
	return s.sessionID
}

// SetObserver registers the tool-call observer. Call before serving.
func (s *Server) SetObserver(observer ToolCallObserver) {
	s.observer = observer
}

// generateToken creates a cryptographically random 32-byte hex token.
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// ServeStdio reads requests from stdin and writes responses to stdout
// until stdin closes or the context is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("MCP server ready on stdio (session %s)", s.sessionID)
	return s.serveStream(ctx, os.Stdin, os.Stdout)
}

// serveStream runs the request loop over an already-authenticated stream.
func (s *Server) serveStream(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("transport read failed: %w", err)
		}

		var request JSONRPCRequest
		if err := json.Unmarshal(line, &request); err != nil {
			s.sendError(w, nil, -32700, "Parse error", err.Error())
			continue
		}

		s.handleRequest(ctx, w, &request)
	}
}

// StartTCP begins listening on 127.0.0.1 with an OS-assigned port. Blocks
// until Stop is called or the context is cancelled. Use Port and Token
// after StartTCP has bound the listener.
func (s *Server) StartTCP(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to listen on TCP: %w", err)
	}

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("unexpected listener address type: %T", listener.Addr())
	}
	s.port = addr.Port
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Info("MCP server listening on port %d", s.port)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Error("Failed to accept connection: %v", err)
				continue
			}
		}

		go s.handleConnection(ctx, conn)
	}
}

// Stop gracefully shuts down the TCP listener.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return fmt.Errorf("failed to close listener: %w", err)
		}
	}

	s.logger.Info("MCP server stopped")
	return nil
}

// Port returns the TCP port the server is listening on, 0 when not running.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Token returns the auth token TCP clients must present.
func (s *Server) Token() string {
	return s.authToken
}

// authMessage is the expected first message on a TCP connection.
type authMessage struct {
	Auth string `json:"auth"`
}

// handleConnection authenticates and serves a single TCP client.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close() //nolint:errcheck // Best-effort close on defer

	s.logger.Debug("New TCP connection")

	reader := bufio.NewReader(conn)
	if !s.authenticateConnection(reader, conn) {
		return
	}

	if err := s.serveStream(ctx, reader, conn); err != nil {
		s.logger.Debug("Connection closed: %v", err)
	}
}

// authenticateConnection validates the first line as an auth token.
func (s *Server) authenticateConnection(reader *bufio.Reader, conn net.Conn) bool {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		s.logger.Debug("Failed to read auth message: %v", err)
		return false
	}

	var auth authMessage
	if err := json.Unmarshal(line, &auth); err != nil {
		s.logger.Warn("Invalid auth message format: %v", err)
		s.sendAuthResponse(conn, false, "Invalid auth message format")
		return false
	}

	if auth.Auth != s.authToken {
		s.logger.Warn("Invalid auth token from client")
		s.sendAuthResponse(conn, false, "Invalid auth token")
		return false
	}

	s.logger.Debug("Client authenticated successfully")
	return s.sendAuthResponse(conn, true, "")
}

func (s *Server) sendAuthResponse(conn net.Conn, ok bool, message string) bool {
	response := map[string]any{"authenticated": ok}
	if message != "" {
		response["error"] = message
	}
	data, _ := json.Marshal(response)
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("Failed to send auth response: %v", err)
		return false
	}
	return ok
}

// handleRequest dispatches a JSON-RPC request to the appropriate handler.
func (s *Server) handleRequest(ctx context.Context, w io.Writer, req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "notifications/initialized":
		// No response needed for notifications
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(ctx, w, req)
	default:
		s.sendError(w, req.ID, -32601, "Method not found", req.Method)
	}
}

// handleInitialize responds to the MCP initialize request.
func (s *Server) handleInitialize(w io.Writer, req *JSONRPCRequest) {
	result := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}
	s.sendResult(w, req.ID, result)
}

// handleToolsList returns the list of available tools.
func (s *Server) handleToolsList(w io.Writer, req *JSONRPCRequest) {
	toolMetas := s.toolProvider.List()

	mcpTools := make([]map[string]any, 0, len(toolMetas))
	for i := range toolMetas {
		mcpTools = append(mcpTools, map[string]any{
			"name":        toolMetas[i].Name,
			"description": toolMetas[i].Description,
			"inputSchema": convertInputSchema(toolMetas[i].InputSchema),
		})
	}

	s.sendResult(w, req.ID, map[string]any{"tools": mcpTools})
}

// convertInputSchema converts an InputSchema to MCP wire format.
func convertInputSchema(schema tools.InputSchema) map[string]any {
	result := map[string]any{
		"type": schema.Type,
	}

	if len(schema.Properties) > 0 {
		props := make(map[string]any)
		for name, prop := range schema.Properties {
			props[name] = convertProperty(prop)
		}
		result["properties"] = props
	}

	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	}

	return result
}

// convertProperty converts a Property to MCP wire format.
func convertProperty(prop tools.Property) map[string]any {
	result := map[string]any{
		"type": prop.Type,
	}

	if prop.Description != "" {
		result["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		result["enum"] = prop.Enum
	}
	if prop.Items != nil {
		result["items"] = convertProperty(*prop.Items)
	}
	if len(prop.Properties) > 0 {
		props := make(map[string]any)
		for name, p := range prop.Properties {
			props[name] = convertProperty(*p)
		}
		result["properties"] = props
	}
	if prop.AdditionalProperties != nil {
		result["additionalProperties"] = convertProperty(*prop.AdditionalProperties)
	}
	if len(prop.Required) > 0 {
		result["required"] = prop.Required
	}

	return result
}

// handleToolsCall executes a tool and returns the result.
func (s *Server) handleToolsCall(ctx context.Context, w io.Writer, req *JSONRPCRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(w, req.ID, -32602, "Invalid params", err.Error())
		return
	}

	s.logger.Info("Tool call: %s", params.Name)

	tool, err := s.toolProvider.Get(params.Name)
	if err != nil {
		s.logger.Warn("Tool not found: %s - %v", params.Name, err)
		s.sendError(w, req.ID, -32602, "Tool not found", err.Error())
		return
	}

	start := time.Now()
	result, err := tool.Exec(ctx, params.Arguments)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("Tool %s failed: %v", params.Name, err)
		s.notifyObserver(ToolCallRecord{
			SessionID: s.sessionID,
			Tool:      params.Name,
			Arguments: params.Arguments,
			Content:   err.Error(),
			Duration:  duration,
		})
		// Return the failure as a tool result, not a JSON-RPC error, so
		// the agent sees it as tool output.
		s.sendResult(w, req.ID, map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": fmt.Sprintf("Error: %v", err)},
			},
			"isError": true,
		})
		return
	}

	content := result.Content
	if content == "" {
		content = "Tool executed successfully"
	}

	preview := content
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	s.logger.Info("Tool %s completed: %s", params.Name, preview)

	s.notifyObserver(ToolCallRecord{
		SessionID: s.sessionID,
		Tool:      params.Name,
		Arguments: params.Arguments,
		Content:   content,
		Succeeded: true,
		Duration:  duration,
	})

	s.sendResult(w, req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": content},
		},
	})
}

func (s *Server) notifyObserver(record ToolCallRecord) {
	if s.observer != nil {
		s.observer(record)
	}
}

// JSON-RPC message types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// sendResult sends a successful JSON-RPC response.
func (s *Server) sendResult(w io.Writer, id interface{}, result interface{}) {
	s.send(w, &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// sendError sends an error JSON-RPC response.
func (s *Server) sendError(w io.Writer, id interface{}, code int, message, data string) {
	s.send(w, &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

// send marshals and writes one line-delimited response.
func (s *Server) send(w io.Writer, response *JSONRPCResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Failed to marshal response: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Failed to write response: %v", err)
	}
}
