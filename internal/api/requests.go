package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/molbridge/pubchem-mcp/internal/engine"
	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/pubchem"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// compoundRequest is the JSON body for POST /v1/requests and POST /v1/compound.
type compoundRequest struct {
	Query     string `json:"query"`
	Format    string `json:"format"`
	Include3D bool   `json:"include_3d"`
}

// submitResponse is the JSON response for POST /v1/requests.
type submitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// compoundResponse is the JSON response for POST /v1/compound.
type compoundResponse struct {
	Result string `json:"result"`
}

// decodeParams reads and validates a compound request body. It reports
// failures to the client and returns false.
func (s *Server) decodeParams(w http.ResponseWriter, r *http.Request) (model.Params, bool) {
	var req compoundRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return model.Params{}, false
	}

	format, err := model.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return model.Params{}, false
	}

	p := model.Params{Query: req.Query, Format: format, Include3D: req.Include3D}
	if err := p.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return model.Params{}, false
	}
	return p, true
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodeParams(w, r)
	if !ok {
		return
	}

	id, err := s.engine.Submit(p)
	if err != nil {
		if errors.Is(err, engine.ErrShutdown) {
			s.writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		s.logger.Error("submit request", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	s.writeJSON(w, http.StatusAccepted, submitResponse{
		RequestID: id,
		Status:    model.StatusPending,
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := s.engine.GetStatus(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "request not found")
			return
		}
		s.logger.Error("get request", "request_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve request")
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	s.writeJSON(w, http.StatusOK, statsResponse{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
	})
}

// handleGetCompound resolves a compound synchronously, bypassing the queue.
func (s *Server) handleGetCompound(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodeParams(w, r)
	if !ok {
		return
	}

	result, err := s.fetcher.Fetch(r.Context(), p)
	if err != nil {
		if errors.Is(err, pubchem.ErrCompoundNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("fetch compound", "query", p.Query, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, compoundResponse{Result: result})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
