package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

// Tool names form a closed set; anything else is rejected with a method not
// found error.
const (
	ToolHelloWorld       = "hello_world"
	ToolGetPubChemData   = "get_pubchem_data"
	ToolSubmitRequest    = "submit_pubchem_request"
	ToolGetRequestStatus = "get_request_status"
)

const xyzRequires3DText = "When using XYZ format, the include_3d parameter must be set to true"

const submitMessage = "Request submitted successfully. Use get_request_status with this request_id to check the status."

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolResult is the tool-level response payload. IsError marks domain
// failures that are still successful protocol responses.
type toolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func textResult(text string) *toolResult {
	return &toolResult{Content: []textContent{{Type: "text", Text: text}}}
}

func errorResult(text string) *toolResult {
	r := textResult(text)
	r.IsError = true
	return r
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type queryArgs struct {
	Query     string `json:"query"`
	Format    string `json:"format"`
	Include3D bool   `json:"include_3d"`
}

type statusArgs struct {
	RequestID string `json:"request_id"`
}

type helloArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleCallTool(ctx context.Context, req request) response {
	var params callToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return response{ID: req.ID, Error: &protocolError{
				Code:    codeInvalidParams,
				Message: "Invalid params: " + err.Error(),
			}}
		}
	}
	if params.Name == "" {
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeInvalidParams,
			Message: "Invalid params: missing tool name",
		}}
	}

	switch params.Name {
	case ToolHelloWorld:
		return s.helloWorld(req, params.Arguments)
	case ToolGetPubChemData:
		return s.getPubChemData(ctx, req, params.Arguments)
	case ToolSubmitRequest:
		return s.submitRequest(req, params.Arguments)
	case ToolGetRequestStatus:
		return s.getRequestStatus(req, params.Arguments)
	default:
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeMethodNotFound,
			Message: "Method not found: " + params.Name,
		}}
	}
}

func (s *Server) helloWorld(req request, args json.RawMessage) response {
	var a helloArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return response{ID: req.ID, Error: &protocolError{
				Code:    codeInvalidParams,
				Message: "Invalid params: " + err.Error(),
			}}
		}
	}
	if a.Name == "" {
		a.Name = "World"
	}
	return response{ID: req.ID, Result: textResult("Hello, " + a.Name + "!")}
}

// parseQueryArgs decodes and validates the shared arguments of the data
// tools. A protocol error is returned for missing or malformed arguments; a
// tool error for domain-level rejections.
func (s *Server) parseQueryArgs(req request, args json.RawMessage) (model.Params, *response) {
	var a queryArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return model.Params{}, &response{ID: req.ID, Error: &protocolError{
				Code:    codeInvalidParams,
				Message: "Invalid params: " + err.Error(),
			}}
		}
	}
	if strings.TrimSpace(a.Query) == "" {
		return model.Params{}, &response{ID: req.ID, Error: &protocolError{
			Code:    codeInvalidParams,
			Message: "Invalid params: missing required parameter 'query'",
		}}
	}

	format, err := model.ParseFormat(a.Format)
	if err != nil {
		return model.Params{}, &response{ID: req.ID, Result: errorResult("Error: " + err.Error())}
	}
	if format == model.FormatXYZ && !a.Include3D {
		return model.Params{}, &response{ID: req.ID, Result: errorResult(xyzRequires3DText)}
	}

	return model.Params{Query: a.Query, Format: format, Include3D: a.Include3D}, nil
}

func (s *Server) getPubChemData(ctx context.Context, req request, args json.RawMessage) response {
	p, errResp := s.parseQueryArgs(req, args)
	if errResp != nil {
		return *errResp
	}

	result, err := s.fetcher.Fetch(ctx, p)
	if err != nil {
		return response{ID: req.ID, Result: errorResult("Error: " + err.Error())}
	}
	return response{ID: req.ID, Result: textResult(result)}
}

func (s *Server) submitRequest(req request, args json.RawMessage) response {
	p, errResp := s.parseQueryArgs(req, args)
	if errResp != nil {
		return *errResp
	}

	id, err := s.engine.Submit(p)
	if err != nil {
		return response{ID: req.ID, Result: errorResult("Error submitting request: " + err.Error())}
	}

	receipt, err := json.MarshalIndent(map[string]string{
		"request_id": id,
		"message":    submitMessage,
	}, "", "  ")
	if err != nil {
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeInternalError,
			Message: "Internal error: " + err.Error(),
		}}
	}
	return response{ID: req.ID, Result: textResult(string(receipt))}
}

func (s *Server) getRequestStatus(req request, args json.RawMessage) response {
	var a statusArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return response{ID: req.ID, Error: &protocolError{
				Code:    codeInvalidParams,
				Message: "Invalid params: " + err.Error(),
			}}
		}
	}
	if a.RequestID == "" {
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeInvalidParams,
			Message: "Invalid params: missing required parameter 'request_id'",
		}}
	}

	r, err := s.engine.GetStatus(a.RequestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response{ID: req.ID, Result: errorResult("Request ID not found: " + a.RequestID)}
		}
		return response{ID: req.ID, Result: errorResult("Error getting request status: " + err.Error())}
	}

	status, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return response{ID: req.ID, Error: &protocolError{
			Code:    codeInternalError,
			Message: "Internal error: " + err.Error(),
		}}
	}
	return response{ID: req.ID, Result: textResult(string(status))}
}

// toolSpecs describes the tools reported by list_tools.
func toolSpecs() []map[string]any {
	queryProperties := map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Compound name or PubChem CID",
		},
		"format": map[string]any{
			"type":        "string",
			"description": "Output format, options: 'JSON', 'CSV', or 'XYZ', default: 'JSON'",
			"enum":        []string{"JSON", "CSV", "XYZ"},
		},
		"include_3d": map[string]any{
			"type":        "boolean",
			"description": "Whether to include 3D structure information (only valid when format is 'XYZ'), default: false",
		},
	}

	return []map[string]any{
		{
			"name":        ToolHelloWorld,
			"description": "A simple hello world function",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Your name",
					},
				},
			},
		},
		{
			"name":        ToolGetPubChemData,
			"description": "Retrieve compound structure and property data (synchronous)",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": queryProperties,
				"required":   []string{"query"},
			},
		},
		{
			"name":        ToolSubmitRequest,
			"description": "Submit asynchronous request for PubChem data (useful for slower queries)",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": queryProperties,
				"required":   []string{"query"},
			},
		},
		{
			"name":        ToolGetRequestStatus,
			"description": "Get status of an asynchronous PubChem data request",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"request_id": map[string]any{
						"type":        "string",
						"description": "Request ID returned from submit_pubchem_request",
					},
				},
				"required": []string{"request_id"},
			},
		},
	}
}
