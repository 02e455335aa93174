// Package mcp serves the Model Context Protocol over stdio: one JSON request
// per line in, one JSON response per line out.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/molbridge/pubchem-mcp/internal/engine"
)

// Server identity reported by the initialize method.
const (
	ServerName    = "pubchem-mcp"
	ServerVersion = "1.0.0"
)

// Protocol error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server dispatches protocol methods to the engine and the synchronous
// fetcher. Requests are handled one at a time in arrival order.
type Server struct {
	engine  *engine.Engine
	fetcher engine.Fetcher
	logger  *slog.Logger
}

// NewServer creates a protocol server backed by the given engine for
// asynchronous tools and fetcher for synchronous ones.
func NewServer(eng *engine.Engine, f engine.Fetcher, logger *slog.Logger) *Server {
	return &Server{
		engine:  eng,
		fetcher: f,
		logger:  logger.With("component", "mcp"),
	}
}

// Serve reads newline-delimited JSON requests from r and writes responses to
// w until EOF or context cancellation. Malformed lines produce a parse error
// response; the loop itself never stops on a bad request.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	out := bufio.NewWriter(w)

	s.logger.Info("server listening on stdio")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("invalid request line", "error", err)
			if werr := writeResponse(out, response{
				Error: &protocolError{Code: codeParseError, Message: "Parse error: " + err.Error()},
			}); werr != nil {
				return werr
			}
			continue
		}

		s.logger.Info("request received", "method", req.Method)
		if err := writeResponse(out, s.handle(ctx, req)); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	s.logger.Info("end of input")
	return nil
}

func (s *Server) handle(ctx context.Context, req request) response {
	switch req.Method {
	case "initialize":
		return response{ID: req.ID, Result: map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
		}}

	case "list_tools":
		return response{ID: req.ID, Result: map[string]any{"tools": toolSpecs()}}

	case "call_tool":
		return s.handleCallTool(ctx, req)

	default:
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeMethodNotFound,
			Message: "Method not found: " + req.Method,
		}}
	}
}

func writeResponse(out *bufio.Writer, resp response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := out.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return out.Flush()
}
