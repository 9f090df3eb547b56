package rank

import (
	"context"
	"sort"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/pkg/utils"
)

// ModelNode 是模型打分 Node：按当前模型的列清单组装特征矩阵，
// 整批打分后按分数降序排列候选。
//
// 组装契约：
//   - 矩阵行序与 items 同序，列序严格按 Scorer.Columns()
//   - 候选缺某列特征时填 0.0（与特征层的保守默认一致），
//     所以列清单比候选特征多/少都不会让矩阵变形
//   - 整个请求用同一个 Scorer 快照：优先用 rctx.Scorer（编排层
//     在请求入口锁定的引用），模型热切换不影响进行中的请求
type ModelNode struct {
	Provider core.ScorerProvider
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	scorer := n.pin(rctx)
	if scorer == nil {
		return nil, core.ErrModelUnavailable
	}

	columns := scorer.Columns()
	matrix := make([][]float64, len(items))
	for i, it := range items {
		row := make([]float64, len(columns))
		for j, col := range columns {
			if v, ok := it.Features[col]; ok {
				row[j] = v
			}
		}
		matrix[i] = row
	}

	scores, err := scorer.Score(matrix)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(items) {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeContractViolation,
			"rank: scorer returned score count mismatching candidate count")
	}

	version := scorer.Version()
	for i, it := range items {
		it.Score = scores[i]
		it.PutLabel("rank_model", utils.Label{Value: version, Source: "rank"})
	}

	// 稳定排序：同分时保持输入顺序，保证结果可复现
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Score > items[b].Score
	})
	return items, nil
}

// pin 取本次请求使用的 Scorer：请求入口已锁定的引用优先，
// 独立使用 ModelNode（没有编排层）时退回 Provider 的当前模型。
func (n *ModelNode) pin(rctx *core.RankContext) core.Scorer {
	if rctx != nil && rctx.Scorer != nil {
		return rctx.Scorer
	}
	if n.Provider == nil {
		return nil
	}
	return n.Provider.Current()
}
