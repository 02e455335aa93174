package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/molbridge/pubchem-mcp/internal/api"
	"github.com/molbridge/pubchem-mcp/internal/engine"
	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/pubchem"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, p model.Params) (string, error) {
	if p.Query == "missing" {
		return "", pubchem.ErrCompoundNotFound
	}
	return "data for " + p.Query, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store.NewMemoryStore(), stubFetcher{}, logger, engine.Options{})
	t.Cleanup(eng.Shutdown)

	srv := httptest.NewServer(api.NewServer("", eng, stubFetcher{}, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestSubmitAndGetRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/requests", `{"query": "aspirin", "format": "JSON"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var submitted struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	}
	decodeBody(t, resp, &submitted)
	if submitted.RequestID == "" {
		t.Fatal("no request_id in response")
	}
	if submitted.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", submitted.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/v1/requests/" + submitted.RequestID)
		if err != nil {
			t.Fatalf("GET request: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var r model.Request
		decodeBody(t, resp, &r)
		if r.Status == model.StatusCompleted {
			if r.Result != "data for aspirin" {
				t.Errorf("result = %q", r.Result)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("request stuck in %q", r.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty query", `{"query": "  "}`, "query cannot be empty"},
		{"xyz without 3d", `{"query": "water", "format": "XYZ"}`, "include_3d"},
		{"unknown format", `{"query": "water", "format": "YAML"}`, "unsupported format"},
		{"bad json", `{query}`, "invalid JSON body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/requests", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			decodeBody(t, resp, &body)
			if !strings.Contains(body["error"], tc.want) {
				t.Errorf("error = %q, want substring %q", body["error"], tc.want)
			}
		})
	}
}

func TestGetRequestNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/requests/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/requests", `{"query": "aspirin"}`)
	resp.Body.Close()

	statsResp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET /v1/stats: %v", err)
	}
	if statsResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", statsResp.StatusCode)
	}

	var stats struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	}
	decodeBody(t, statsResp, &stats)
	if stats.Total != 1 {
		t.Errorf("total = %d, want 1", stats.Total)
	}
}

func TestGetCompoundSync(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/compound", `{"query": "caffeine"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["result"] != "data for caffeine" {
		t.Errorf("result = %q", body["result"])
	}
}

func TestGetCompoundNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/compound", `{"query": "missing"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
