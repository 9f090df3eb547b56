package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/pkg/dsl"
	"github.com/rushteam/searchrank/pkg/utils"
)

// Rule 是单条业务调分规则：When 表达式命中时给分数乘 Boost。
// 规则只调分，不丢候选；命中多条规则时乘数叠乘。
type Rule struct {
	// Name 规则名，写进命中商品的 rerank_rules 标签
	Name string `yaml:"name" json:"name"`

	// When 是 CEL 布尔表达式，空表达式恒真。
	// 示例：`item.meta.brand == "nike" && item.features.rating >= 4.5`
	When string `yaml:"when" json:"when"`

	// Boost 是分数乘数；<=0 视为 1.0（不调分）
	Boost float64 `yaml:"boost" json:"boost"`
}

// RuleNode 是业务规则重排节点：逐条规则对每个候选求值并调分，
// 最后按调整后的分数重新稳定排序。
//
// 规则求值失败（表达式写错、访问不存在的 key）只跳过该候选上的
// 该条规则，绝不让一条坏规则拖垮整批排序。
type RuleNode struct {
	Rules []Rule
}

func (n *RuleNode) Name() string        { return "rerank.rule" }
func (n *RuleNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *RuleNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Rules) == 0 || len(items) == 0 {
		return items, nil
	}

	touched := false
	for _, it := range items {
		if it == nil {
			continue
		}
		ev := dsl.NewEval(it, rctx)
		for _, rule := range n.Rules {
			hit, err := ev.Evaluate(rule.When)
			if err != nil || !hit {
				continue
			}
			boost := rule.Boost
			if boost <= 0 {
				boost = 1.0
			}
			it.Score *= boost
			touched = true
			if rule.Name != "" {
				it.PutLabel("rerank_rules", utils.Label{Value: rule.Name, Source: "rerank"})
			}
		}
	}

	if touched {
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].Score > items[b].Score
		})
	}
	return items, nil
}
