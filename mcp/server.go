// Package mcp provides an MCP (Model Context Protocol) server over stdio
// that exposes shaderswap operations as tools.
package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
)

// ProtocolVersion is the MCP revision the server speaks.
const ProtocolVersion = "2024-11-05"

// ToolHandler processes tool invocations and returns results.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// Tool represents a registered tool that can be invoked by MCP clients.
type Tool struct {
	Name        string
	Description string
	Handler     ToolHandler
	InputSchema map[string]any // JSON Schema for input parameters
}

// Config configures the MCP server.
type Config struct {
	// Name is the server name (e.g., "shaderswap")
	Name string

	// Version is the server version (e.g., "1.0.0")
	Version string

	// Logger receives protocol traces at debug level. Nil discards them.
	Logger *slog.Logger
}

// Server implements the MCP protocol over stdio.
type Server struct {
	config Config
	logger *slog.Logger
	tools  map[string]*Tool
	mu     sync.RWMutex

	reader io.Reader
	writer io.Writer
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		config: config,
		logger: logger.With("server", config.Name),
		tools:  make(map[string]*Tool),
		reader: os.Stdin,
		writer: os.Stdout,
	}
}

// SetIO replaces the stdio streams the server reads requests from and
// writes responses to.
func (s *Server) SetIO(r io.Reader, w io.Writer) {
	s.reader = r
	s.writer = w
}

// RegisterToolWithSchema adds a tool with a JSON Schema for input validation.
func (s *Server) RegisterToolWithSchema(name, description string, handler ToolHandler, inputSchema map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[name] = &Tool{
		Name:        name,
		Description: description,
		Handler:     handler,
		InputSchema: inputSchema,
	}
	s.logger.Debug("registered tool", "tool", name)
}

// Name returns the server name.
func (s *Server) Name() string {
	return s.config.Name
}

// Start begins listening for MCP requests on stdio.
// This method blocks until the input is exhausted, a write fails or ctx is
// done. Cancellation returns ctx.Err() even while a read is pending.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("starting MCP server")

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go s.readLines(ctx, lines, readErr)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil && ctx.Err() == nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return ctx.Err()
			}
			line = l
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.Debug("received", "message", string(line))

		response := s.handleMessage(ctx, line)
		if response == nil {
			continue
		}
		out, err := json.Marshal(response)
		if err != nil {
			s.logger.Error("failed to marshal response", "error", err)
			out, _ = json.Marshal(errorResponse(response.ID, InternalError, "Internal error"))
		}
		if _, err := fmt.Fprintln(s.writer, string(out)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		s.logger.Debug("sent", "message", string(out))
	}
}

// readLines feeds non-empty input lines to lines until the input ends or
// ctx is done, then reports the scanner error and closes lines.
func (s *Server) readLines(ctx context.Context, lines chan<- []byte, readErr chan<- error) {
	defer close(lines)

	scanner := bufio.NewScanner(s.reader)
	// Set a larger buffer for potentially large JSON-RPC messages
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case lines <- line:
		case <-ctx.Done():
			readErr <- nil
			return
		}
	}
	readErr <- scanner.Err()
}

// handleMessage processes a single JSON-RPC message. Messages without an ID
// are notifications: they are never answered and never run a tool.
func (s *Server) handleMessage(ctx context.Context, data []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nil, ParseError, "Parse error")
	}
	if len(req.ID) == 0 {
		s.logger.Debug("notification", "method", req.Method)
		return nil
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, InvalidRequest, "Invalid request")
	}
	s.logger.Debug("handling method", "method", req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "ping":
		return &JSONRPCResponse{JSONRPC: "2.0", Result: map[string]any{}, ID: req.ID}
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(ctx, &req)
	default:
		return errorResponse(req.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo: ServerInfo{
				Name:    s.config.Name,
				Version: s.config.Version,
			},
			Capabilities: ServerCapabilities{
				Tools: &ToolsCapability{},
			},
		},
		ID: req.ID,
	}
}

func (s *Server) handleToolsList(req *JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  ToolsListResult{Tools: s.GetTools()},
		ID:      req.ID,
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params ToolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, InvalidParams, "Invalid params structure")
		}
	}

	s.mu.RLock()
	tool, exists := s.tools[params.Name]
	s.mu.RUnlock()
	if !exists {
		return errorResponse(req.ID, InvalidParams, fmt.Sprintf("Tool not found: %s", params.Name))
	}

	text, err := tool.Handler(ctx, params.Arguments)
	result := ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		result = ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}
	}
	return &JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: req.ID}
}

// GetTools returns the registered tools sorted by name.
func (s *Server) GetTools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		info := ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
		if info.InputSchema == nil {
			info.InputSchema = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}
		tools = append(tools, info)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func errorResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   &JSONRPCError{Code: code, Message: message},
		ID:      id,
	}
}
