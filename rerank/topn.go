package rerank

import (
	"context"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在打分排序后截取前 N 个商品。
// 这是完整性不变式唯一允许的"候选数减少"方式：显式、可配置的截断。
//
// 使用场景：
//   - 排序后只返回 Top 10/20/50 个结果
//   - 控制搜索结果页数量，减小响应体
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.ModelNode{...},     // 模型打分排序
//	        &rerank.RuleNode{...},    // 业务规则调分
//	        &rerank.TopNNode{N: 20},  // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的商品数量（Top N）
	// 如果 N <= 0，则返回所有商品（不截断）
	// 如果 N > len(items)，则返回所有商品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	// 请求级 topn 参数优先于节点配置
	if rctx != nil && rctx.Params != nil {
		if v, ok := rctx.Params["topn"]; ok {
			if i, ok := toInt(v); ok && i > 0 {
				limit = i
			}
		}
	}

	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}
