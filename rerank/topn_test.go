package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/searchrank/core"
)

func topnItems(n int) []*core.Item {
	items := make([]*core.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, core.NewItem(int64(i+1)))
	}
	return items
}

func TestTopNNode_Process(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		params map[string]any
		in     int
		want   int
	}{
		{"truncate", 3, nil, 10, 3},
		{"no truncation when n is zero", 0, nil, 10, 10},
		{"fewer items than n", 5, nil, 2, 2},
		{"request param overrides node config", 3, map[string]any{"topn": 7}, 10, 7},
		{"invalid request param ignored", 3, map[string]any{"topn": "abc"}, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			rctx := &core.RankContext{Params: tt.params}
			out, err := node.Process(context.Background(), rctx, topnItems(tt.in))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("got %d items, want %d", len(out), tt.want)
			}
		})
	}
}

func TestTopNNode_KeepsHeadOrder(t *testing.T) {
	node := &TopNNode{N: 2}
	out, err := node.Process(context.Background(), &core.RankContext{}, topnItems(5))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].ID != 1 || out[1].ID != 2 {
		t.Errorf("truncation must keep the head of the ranking, got %d,%d", out[0].ID, out[1].ID)
	}
}
