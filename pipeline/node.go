package pipeline

import (
	"context"

	"github.com/rushteam/searchrank/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFeature     Kind = "feature"     // 特征阶段：快照点查 + 兜底合成
	KindRank        Kind = "rank"        // 排序阶段：对候选打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：业务规则调分 / 截断
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充标签或最终结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，方便特征补全、打分排序、重排截断等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RankContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置构建 Node，供配置驱动的工厂使用。
type NodeBuilder = func(map[string]interface{}) (Node, error)
