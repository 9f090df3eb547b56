package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/feature"
	"github.com/rushteam/searchrank/model"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/rank"
)

const serviceSnapshotCSV = `query,product_id,ctr,query_ctr,tfidf_similarity,rating
running shoes,101,0.20,0.18,0.9,4.7
running shoes,102,0.05,0.03,0.5,4.0
`

type testProvider struct {
	artifact *model.Artifact
	degraded bool
}

func (p *testProvider) Current() core.Scorer {
	if p.artifact == nil {
		return nil
	}
	return p.artifact
}

func (p *testProvider) Degraded() bool { return p.degraded }

func newTestServer(t *testing.T, provider core.ScorerProvider) *Server {
	t.Helper()
	snap, err := feature.ReadSnapshot(strings.NewReader(serviceSnapshotCSV))
	if err != nil {
		t.Fatal(err)
	}
	accessor := feature.NewAccessor()
	accessor.Swap(snap)

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&feature.EnrichNode{Store: accessor, Synth: feature.NewSynthesizer()},
		&rank.ModelNode{Provider: provider},
	}}
	engine := rank.NewEngine(p, provider, nil)
	return NewServer(engine, provider, accessor, zerolog.Nop())
}

func readyProvider() *testProvider {
	return &testProvider{artifact: model.NewArtifact(
		"v20260824",
		[]string{"ctr", "query_ctr", "tfidf_similarity"},
		&model.LRModel{Weights: []float64{5.0, 3.0, 1.0}},
	)}
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Rank(t *testing.T) {
	srv := newTestServer(t, readyProvider())

	rec := doJSON(t, srv, http.MethodPost, "/rank", `{
		"query": "running shoes",
		"products": [
			{"id": 102, "title": "Trail Running Shoes", "rating": 4.0},
			{"id": 101, "title": "Road Running Shoes", "rating": 4.7}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp rankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ModelVersion != "v20260824" {
		t.Errorf("model_version = %q, want v20260824", resp.ModelVersion)
	}
	if resp.NumProducts != 2 || len(resp.RankedProducts) != 2 {
		t.Fatalf("got %d results (num_products=%d), want 2", len(resp.RankedProducts), resp.NumProducts)
	}
	if resp.RankedProducts[0].ProductID != 101 {
		t.Errorf("top result = %d, want 101", resp.RankedProducts[0].ProductID)
	}
}

func TestServer_Root(t *testing.T) {
	srv := newTestServer(t, readyProvider())
	rec := doJSON(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "searchrank") {
		t.Error("root descriptor should name the service")
	}
}

func TestServer_RankValidation(t *testing.T) {
	srv := newTestServer(t, readyProvider())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing query", `{"products": [{"id": 1}]}`},
		{"non-positive id", `{"query": "q", "products": [{"id": 0}]}`},
		{"duplicate ids", `{"query": "q", "products": [{"id": 1}, {"id": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/rank", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_RankModelUnavailable(t *testing.T) {
	srv := newTestServer(t, &testProvider{})

	rec := doJSON(t, srv, http.MethodPost, "/rank",
		`{"query": "running shoes", "products": [{"id": 101, "title": "x"}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503, body: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(t, readyProvider())
		rec := doJSON(t, srv, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != "ok" || resp.ModelVersion != "v20260824" {
			t.Errorf("health = %+v, want ok with model version", resp)
		}
		if resp.SnapshotRows != 2 {
			t.Errorf("snapshot_rows = %d, want 2", resp.SnapshotRows)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		p := readyProvider()
		p.degraded = true
		srv := newTestServer(t, p)
		rec := doJSON(t, srv, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (degraded still serves)", rec.Code)
		}
		var resp healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != "degraded" {
			t.Errorf("status = %q, want degraded", resp.Status)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		srv := newTestServer(t, &testProvider{})
		rec := doJSON(t, srv, http.MethodGet, "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, readyProvider())

	// 先打一次排序请求，再抓指标
	doJSON(t, srv, http.MethodPost, "/rank",
		`{"query": "running shoes", "products": [{"id": 101, "title": "x"}]}`)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"rank_requests_total",
		"rank_request_duration_seconds",
		"model_version_info",
		"rank_active_requests",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
	if !strings.Contains(body, `model_version_info{version="v20260824"} 1`) {
		t.Errorf("metrics output missing active model version gauge")
	}
}
