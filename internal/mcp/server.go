// Package mcp serves the memory store over the Model Context Protocol:
// newline-delimited JSON-RPC on stdio, the transport host agents spawn
// tool servers with.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mnemon/mnemon/internal/memory"
)

const protocolVersion = "2024-11-05"

// Server answers MCP requests against one memory service.
type Server struct {
	svc    *memory.Service
	reader *bufio.Reader
	writer io.Writer
}

// NewServer wires a server over the given transport. Commands pass
// stdin/stdout; tests pass buffers.
func NewServer(svc *memory.Service, r io.Reader, w io.Writer) *Server {
	return &Server{
		svc:    svc,
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Run serves requests until the input stream closes.
func (s *Server) Run() error {
	for {
		line, err := s.reader.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		var req jsonrpcRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.sendError(nil, -32700, "Parse error")
			continue
		}
		s.handleRequest(&req)
	}
}

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleRequest(req *jsonrpcRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "notifications/initialized":
		// Notification; no response.
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		s.sendError(req.ID, -32601, "Method not found")
	}
}

func (s *Server) handleInitialize(req *jsonrpcRequest) {
	s.sendResult(req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    "mnemon",
			"version": "0.1.0",
		},
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
	})
}

func (s *Server) handleToolsList(req *jsonrpcRequest) {
	tools := []map[string]any{
		{
			"name":        "mnemon_remember",
			"description": "Store an insight in persistent memory and wire it into the knowledge graph",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "What to remember, roughly one sentence",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Kind of knowledge",
						"enum":        []string{"preference", "decision", "fact", "insight", "context", "general"},
						"default":     "general",
					},
					"importance": map[string]any{
						"type":        "number",
						"description": "1-5; 5 must never be lost",
						"default":     3,
					},
					"tags": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Short labels",
					},
					"entities": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Named things this insight is about",
					},
				},
				"required": []string{"content"},
			},
		},
		{
			"name":        "mnemon_recall",
			"description": "Retrieve insights by intent-aware graph search",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to search for",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum results",
						"default":     10,
					},
					"intent": map[string]any{
						"type":        "string",
						"description": "Override the detected intent",
						"enum":        []string{"WHY", "WHEN", "ENTITY", "GENERAL"},
					},
				},
				"required": []string{"query"},
			},
		},
		{
			"name":        "mnemon_status",
			"description": "Get memory store statistics",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}

	s.sendResult(req.ID, map[string]any{"tools": tools})
}

func (s *Server) handleToolsCall(req *jsonrpcRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case "mnemon_remember":
		s.handleRemember(req, params.Arguments)
	case "mnemon_recall":
		s.handleRecall(req, params.Arguments)
	case "mnemon_status":
		s.handleStatus(req)
	default:
		s.sendError(req.ID, -32602, "Unknown tool")
	}
}

func (s *Server) handleRemember(req *jsonrpcRequest, args json.RawMessage) {
	var params struct {
		Content    string   `json:"content"`
		Category   string   `json:"category"`
		Importance int      `json:"importance"`
		Tags       []string `json:"tags"`
		Entities   []string `json:"entities"`
	}
	json.Unmarshal(args, &params)

	if params.Importance == 0 {
		params.Importance = 3
	}
	res, err := s.svc.Remember(memory.RememberRequest{
		Content:    params.Content,
		Category:   params.Category,
		Importance: params.Importance,
		Tags:       params.Tags,
		Entities:   params.Entities,
		Source:     "agent",
	})
	if err != nil {
		s.sendError(req.ID, -32000, err.Error())
		return
	}
	s.sendToolJSON(req.ID, res)
}

func (s *Server) handleRecall(req *jsonrpcRequest, args json.RawMessage) {
	var params struct {
		Query  string `json:"query"`
		Limit  int    `json:"limit"`
		Intent string `json:"intent"`
	}
	json.Unmarshal(args, &params)

	resp, err := s.svc.Recall(memory.RecallRequest{
		Query:  params.Query,
		Limit:  params.Limit,
		Intent: params.Intent,
	})
	if err != nil {
		s.sendError(req.ID, -32000, err.Error())
		return
	}
	s.sendToolJSON(req.ID, resp)
}

func (s *Server) handleStatus(req *jsonrpcRequest) {
	res, err := s.svc.Status()
	if err != nil {
		s.sendError(req.ID, -32000, err.Error())
		return
	}
	s.sendToolJSON(req.ID, res)
}

// sendToolJSON wraps a result object as MCP text content.
func (s *Server) sendToolJSON(id any, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.sendError(id, -32000, err.Error())
		return
	}
	s.sendResult(id, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(data)},
		},
	})
}

func (s *Server) sendResult(id any, result any) {
	s.send(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id any, code int, message string) {
	s.send(jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) send(resp jsonrpcResponse) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(s.writer, "%s\n", data)
}
