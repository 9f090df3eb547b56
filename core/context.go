package core

import "github.com/rushteam/searchrank/pkg/utils"

// RankContext 承载查询/用户/请求级信息，贯穿整个 Pipeline 透传。
type RankContext struct {
	// Query 是原始查询词（未归一化）；特征层按统一规则归一化后再查快照
	Query  string
	UserID string

	// Scorer 是本次请求锁定的模型快照：编排层在进入 Pipeline 前写入，
	// 打分节点优先使用它。整个请求只读这一份引用，热切换发生在请求
	// 中途也不会出现"报告的版本与实际打分的版本不一致"的混用状态
	Scorer Scorer

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如 topn、debug 开关、实验分组等
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
