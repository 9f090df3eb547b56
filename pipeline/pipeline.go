package pipeline

import (
	"context"

	"github.com/rushteam/searchrank/core"
)

// Pipeline 是排序服务的核心抽象：把排序逻辑拆成可组合的 Node 链。
// 典型链路：特征补全 → 模型打分 → 规则重排 → TopN 截断。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			// 超时/取消：排序必须整批完成，不返回部分结果
			return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeTimeout, "pipeline: "+err.Error())
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
