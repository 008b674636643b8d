// Package mcp exposes the trading engine over the Model Context Protocol
// stdio transport: newline-delimited JSON-RPC 2.0 on stdin/stdout.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"paper-trader/internal/engine"
	"paper-trader/internal/portfolio"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "trading-mcp"
	serverVersion   = "0.1.0"
)

// Server serves engine operations as MCP tools.
type Server struct {
	executor *engine.Executor
	analyzer *portfolio.Analyzer
	log      zerolog.Logger

	// writeMu guards the output stream; responses must not interleave.
	writeMu sync.Mutex
	out     *bufio.Writer
}

// NewServer creates an MCP server over the given engine components.
func NewServer(executor *engine.Executor, analyzer *portfolio.Analyzer, logger zerolog.Logger) *Server {
	return &Server{
		executor: executor,
		analyzer: analyzer,
		log:      logger.With().Str("component", "mcp").Logger(),
	}
}

// rpcRequest is an incoming JSON-RPC 2.0 message. A missing ID marks a
// notification, which gets no response.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Serve reads JSON-RPC requests from r and writes responses to w until r
// is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = bufio.NewWriter(w)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.respondError(nil, codeParseError, "parse error")
			continue
		}

		s.handle(ctx, &req)
	}
	return scanner.Err()
}

// handle dispatches one request. Notifications produce no response.
func (s *Server) handle(ctx context.Context, req *rpcRequest) {
	s.log.Debug().Str("method", req.Method).Msg("Request received")

	switch req.Method {
	case "initialize":
		s.respond(req.ID, map[string]interface{}{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]string{
				"name":    serverName,
				"version": serverVersion,
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
		})

	case "notifications/initialized", "initialized":
		// Notification, no response.

	case "ping":
		s.respond(req.ID, map[string]interface{}{})

	case "tools/list":
		s.respond(req.ID, map[string]interface{}{"tools": toolDescriptors()})

	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.respondError(req.ID, codeInvalidParams, "invalid tool call params")
			return
		}

		toolReq, err := parseToolRequest(params.Name, params.Arguments)
		if err != nil {
			s.respondError(req.ID, codeInvalidParams, err.Error())
			return
		}

		payload := s.dispatch(ctx, toolReq)
		s.respond(req.ID, toolResult(payload))

	default:
		if req.ID == nil {
			return // Unknown notification, ignore.
		}
		s.respondError(req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

// toolResult wraps a payload into the MCP tool-result content shape.
func toolResult(payload interface{}) map[string]interface{} {
	text, err := json.Marshal(payload)
	if err != nil {
		text = []byte(`{"success":false,"error":{"code":"INTERNAL","message":"response serialization failed"}}`)
	}
	return map[string]interface{}{
		"content": []map[string]string{
			{"type": "text", "text": string(text)},
		},
	}
}

func (s *Server) respond(id json.RawMessage, result interface{}) {
	if id == nil {
		return
	}
	s.write(&rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id json.RawMessage, code int, message string) {
	if id == nil {
		id = json.RawMessage("null")
	}
	s.write(&rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) write(resp *rpcResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("Response marshal failed")
		return
	}
	s.out.Write(data)
	s.out.WriteByte('\n')
	s.out.Flush()
}
