package rank

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/feature"
	"github.com/rushteam/searchrank/model"
	"github.com/rushteam/searchrank/pipeline"
)

const rankSnapshotCSV = `query,product_id,ctr,atc_rate,popularity,query_ctr,tfidf_similarity,price,rating
running shoes,101,0.20,0.08,0.9,0.18,0.9,89.9,4.7
running shoes,102,0.05,0.01,0.4,0.03,0.5,59.9,4.0
running shoes,103,0.12,0.04,0.7,0.10,0.7,79.9,4.5
`

type fixedProvider struct {
	artifact *model.Artifact
	degraded bool
}

func (p *fixedProvider) Current() core.Scorer {
	if p.artifact == nil {
		return nil
	}
	return p.artifact
}

func (p *fixedProvider) Degraded() bool { return p.degraded }

func testProvider(columns []string, weights []float64) *fixedProvider {
	return &fixedProvider{
		artifact: model.NewArtifact("test-v1", columns, &model.LRModel{Bias: 0, Weights: weights}),
	}
}

func testEngine(t *testing.T, provider core.ScorerProvider) *Engine {
	t.Helper()
	snap, err := feature.ReadSnapshot(strings.NewReader(rankSnapshotCSV))
	if err != nil {
		t.Fatal(err)
	}
	accessor := feature.NewAccessor()
	accessor.Swap(snap)

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&feature.EnrichNode{Store: accessor, Synth: feature.NewSynthesizer()},
		&ModelNode{Provider: provider},
	}}
	return NewEngine(p, provider, nil)
}

func shoesRequest() *core.RankRequest {
	return &core.RankRequest{
		Query: "running shoes",
		Products: []*core.Product{
			{ID: 102, Title: "Trail Running Shoes", Price: 59.9, Rating: 4.0},
			{ID: 101, Title: "Road Running Shoes", Price: 89.9, Rating: 4.7},
			{ID: 103, Title: "Light Running Shoes", Price: 79.9, Rating: 4.5},
		},
	}
}

func TestEngine_RanksByEngagement(t *testing.T) {
	// 权重偏向 ctr：101 的历史互动最高，应排第一
	provider := testProvider(
		[]string{"ctr", "query_ctr", "tfidf_similarity"},
		[]float64{5.0, 3.0, 1.0},
	)
	engine := testEngine(t, provider)

	result, err := engine.Rank(context.Background(), shoesRequest())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranked) != 3 {
		t.Fatalf("got %d results, want 3", len(result.Ranked))
	}
	if result.Ranked[0].ID != 101 {
		t.Errorf("top result = %d, want 101", result.Ranked[0].ID)
	}
	if result.Ranked[2].ID != 102 {
		t.Errorf("last result = %d, want 102", result.Ranked[2].ID)
	}
	if result.ModelVersion != "test-v1" {
		t.Errorf("ModelVersion = %q, want test-v1", result.ModelVersion)
	}
	for i := 1; i < len(result.Ranked); i++ {
		if result.Ranked[i].Score > result.Ranked[i-1].Score {
			t.Errorf("results not in descending score order at %d", i)
		}
	}
}

func TestEngine_Completeness(t *testing.T) {
	provider := testProvider([]string{"ctr"}, []float64{1.0})
	engine := testEngine(t, provider)

	req := &core.RankRequest{Query: "running shoes"}
	want := make(map[int64]bool)
	for i := int64(1); i <= 40; i++ {
		req.Products = append(req.Products, &core.Product{ID: i, Title: "Product"})
		want[i] = true
	}

	result, err := engine.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranked) != 40 {
		t.Fatalf("got %d results, want 40 (no drops)", len(result.Ranked))
	}
	seen := make(map[int64]bool)
	for _, r := range result.Ranked {
		if seen[r.ID] {
			t.Errorf("duplicate product %d in results", r.ID)
		}
		seen[r.ID] = true
		if !want[r.ID] {
			t.Errorf("unexpected product %d in results", r.ID)
		}
	}
}

func TestEngine_Deterministic(t *testing.T) {
	provider := testProvider([]string{"ctr", "rating"}, []float64{2.0, 0.5})
	engine := testEngine(t, provider)

	first, err := engine.Rank(context.Background(), shoesRequest())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Rank(context.Background(), shoesRequest())
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		for j := range first.Ranked {
			if again.Ranked[j].ID != first.Ranked[j].ID {
				t.Fatalf("run %d: order differs at position %d", i, j)
			}
		}
	}
}

func TestEngine_StableTieBreak(t *testing.T) {
	// 所有候选特征全缺省 → 全部同分 → 保持输入顺序
	provider := testProvider([]string{"query_purchase_rate"}, []float64{1.0})
	engine := testEngine(t, provider)

	req := &core.RankRequest{
		Query: "winter jacket",
		Products: []*core.Product{
			{ID: 7, Title: "A"}, {ID: 3, Title: "B"}, {ID: 9, Title: "C"},
		},
	}
	result, err := engine.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	wantOrder := []int64{7, 3, 9}
	for i, id := range wantOrder {
		if result.Ranked[i].ID != id {
			t.Errorf("position %d = %d, want %d (stable tie-break)", i, result.Ranked[i].ID, id)
		}
	}
}

func TestEngine_EmptyCandidates(t *testing.T) {
	provider := testProvider([]string{"ctr"}, []float64{1.0})
	engine := testEngine(t, provider)

	result, err := engine.Rank(context.Background(), &core.RankRequest{Query: "running shoes"})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranked) != 0 {
		t.Errorf("got %d results, want 0", len(result.Ranked))
	}
	if result.ModelVersion != "test-v1" {
		t.Errorf("ModelVersion = %q, want test-v1 even for empty list", result.ModelVersion)
	}
}

func TestEngine_InvalidInput(t *testing.T) {
	provider := testProvider([]string{"ctr"}, []float64{1.0})
	engine := testEngine(t, provider)

	tests := []struct {
		name string
		req  *core.RankRequest
	}{
		{"nil request", nil},
		{"empty query", &core.RankRequest{Products: []*core.Product{{ID: 1}}}},
		{"nil candidate", &core.RankRequest{Query: "q", Products: []*core.Product{nil}}},
		{"duplicate ids", &core.RankRequest{Query: "q", Products: []*core.Product{{ID: 1}, {ID: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Rank(context.Background(), tt.req)
			if !core.IsInvalidInput(err) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestEngine_TooManyCandidates(t *testing.T) {
	provider := testProvider([]string{"ctr"}, []float64{1.0})
	engine := testEngine(t, provider)

	req := &core.RankRequest{Query: "q"}
	for i := int64(0); i < 501; i++ {
		req.Products = append(req.Products, &core.Product{ID: i + 1})
	}
	if _, err := engine.Rank(context.Background(), req); !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT for over-limit batch", err)
	}
}

// swappingProvider 模拟请求进行中发生热切换：第一次 Current() 返回
// 旧模型，之后的任何调用都返回新模型。只有整个请求复用第一次读到的
// 引用，版本与分数才能保持一致。
type swappingProvider struct {
	old, new *model.Artifact
	calls    int
}

func (p *swappingProvider) Current() core.Scorer {
	p.calls++
	if p.calls == 1 {
		return p.old
	}
	return p.new
}

func (p *swappingProvider) Degraded() bool { return false }

func TestEngine_HotSwapMidRequest(t *testing.T) {
	// 旧模型：z=0 → 0.5；新模型：z=10 → ≈0.99995。
	// 请求入口锁定旧模型后即使 Provider 已切到新模型，
	// 分数和报告的版本都必须来自同一个（旧）模型
	provider := &swappingProvider{
		old: model.NewArtifact("v-old", []string{"ctr"}, &model.LRModel{Bias: 0, Weights: []float64{0}}),
		new: model.NewArtifact("v-new", []string{"ctr"}, &model.LRModel{Bias: 10, Weights: []float64{0}}),
	}
	engine := testEngine(t, provider)

	result, err := engine.Rank(context.Background(), shoesRequest())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if result.ModelVersion != "v-old" {
		t.Errorf("ModelVersion = %q, want v-old (model pinned at request entry)", result.ModelVersion)
	}
	for _, r := range result.Ranked {
		if math.Abs(r.Score-0.5) > 1e-9 {
			t.Errorf("product %d score = %v, want 0.5 from the pinned model", r.ID, r.Score)
		}
	}
}

func TestEngine_ModelUnavailable(t *testing.T) {
	engine := testEngine(t, &fixedProvider{})

	_, err := engine.Rank(context.Background(), shoesRequest())
	if !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE", err)
	}
}
