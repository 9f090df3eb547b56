package feature

import (
	"context"
	"strings"
	"testing"

	"github.com/rushteam/searchrank/core"
)

func buildTestAccessor(t *testing.T) *Accessor {
	t.Helper()
	snap, err := ReadSnapshot(strings.NewReader(testSnapshotCSV))
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	a := NewAccessor()
	a.Swap(snap)
	return a
}

func TestEnrichNode_StoreHit(t *testing.T) {
	node := &EnrichNode{Store: buildTestAccessor(t), Synth: NewSynthesizer()}
	rctx := &core.RankContext{Query: "Running Shoes"}

	item := core.NewItem(101)
	item.Meta["title"] = "Road Running Shoes"

	out, err := node.Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Features["ctr"] != 0.12 {
		t.Errorf("ctr = %v, want snapshot value 0.12", out[0].Features["ctr"])
	}
	lbl, ok := out[0].GetLabel("feature_source")
	if !ok || lbl.Value != "store" {
		t.Errorf("feature_source = %v, want store", lbl.Value)
	}
}

func TestEnrichNode_SynthesizedFallback(t *testing.T) {
	node := &EnrichNode{Store: buildTestAccessor(t), Synth: NewSynthesizer()}
	rctx := &core.RankContext{Query: "running shoes"}

	// 快照里没有（running shoes, 103）这一对，但有 103 的聚合行
	item := core.NewItem(103)
	item.Meta["title"] = "Cotton Socks"
	item.Features["price"] = 19.9

	out, err := node.Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Features["ctr"] != 0.02 {
		t.Errorf("ctr = %v, want product aggregate 0.02", out[0].Features["ctr"])
	}
	if out[0].Features["price"] != 19.9 {
		t.Errorf("price = %v, want request value 19.9", out[0].Features["price"])
	}
	lbl, _ := out[0].GetLabel("feature_source")
	if lbl.Value != "synthesized" {
		t.Errorf("feature_source = %v, want synthesized", lbl.Value)
	}
}

type stubAggregateProvider struct {
	aggs map[int64]map[string]float64
}

func (p *stubAggregateProvider) Name() string { return "stub" }

func (p *stubAggregateProvider) ProductAggregates(_ context.Context, id int64) (map[string]float64, error) {
	if a, ok := p.aggs[id]; ok {
		return a, nil
	}
	return nil, core.ErrStoreNotFound
}

func TestEnrichNode_OnlineFallback(t *testing.T) {
	node := &EnrichNode{
		Store: buildTestAccessor(t),
		Synth: NewSynthesizer(),
		Fallback: &stubAggregateProvider{aggs: map[int64]map[string]float64{
			555: {"ctr": 0.42, "popularity": 0.5},
		}},
	}
	rctx := &core.RankContext{Query: "running shoes"}

	// 快照里完全没有 555，走在线兜底
	item := core.NewItem(555)
	item.Meta["title"] = "New Running Shoes"

	out, err := node.Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Features["ctr"] != 0.42 {
		t.Errorf("ctr = %v, want online fallback 0.42", out[0].Features["ctr"])
	}
}

func TestEnrichNode_UnknownProductDefaults(t *testing.T) {
	node := &EnrichNode{Store: buildTestAccessor(t), Synth: NewSynthesizer()}
	rctx := &core.RankContext{Query: "running shoes"}

	item := core.NewItem(999)
	item.Meta["title"] = "Mystery Product"

	out, err := node.Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// 无任何历史：合成兜底，相似度为 0、其余缺省
	lbl, _ := out[0].GetLabel("feature_source")
	if lbl.Value != "synthesized" {
		t.Errorf("feature_source = %v, want synthesized", lbl.Value)
	}
}

func TestEnrichNode_Concurrent(t *testing.T) {
	node := &EnrichNode{Store: buildTestAccessor(t), Synth: NewSynthesizer(), MaxConcurrent: 4}
	rctx := &core.RankContext{Query: "running shoes"}

	items := make([]*core.Item, 0, 50)
	for i := int64(1); i <= 50; i++ {
		it := core.NewItem(i)
		it.Meta["title"] = "Some Product"
		items = append(items, it)
	}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 50 {
		t.Fatalf("got %d items, want 50", len(out))
	}
	for _, it := range out {
		if _, ok := it.GetLabel("feature_source"); !ok {
			t.Errorf("item %d missing feature_source label", it.ID)
		}
	}
}
