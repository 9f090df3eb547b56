package rank

import (
	"context"
	"fmt"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
)

// Engine 是排序服务的编排入口：校验请求、检查模型可用性、
// 构建 Item 链路输入、带超时跑 Pipeline、映射完整结果。
//
// 完整性不变式：输出覆盖请求中的每个候选商品，无丢失、无重复
// （TopN 截断是唯一例外，由重排层显式声明）。
type Engine struct {
	Pipeline *pipeline.Pipeline
	Provider core.ScorerProvider
	Config   core.RankConfig
}

func NewEngine(p *pipeline.Pipeline, provider core.ScorerProvider, cfg core.RankConfig) *Engine {
	if cfg == nil {
		cfg = &core.DefaultRankConfig{}
	}
	return &Engine{Pipeline: p, Provider: provider, Config: cfg}
}

// Rank 执行一次完整的排序请求。
//
// 错误语义：
//   - 请求不合法 → INVALID_INPUT
//   - 没有可用模型 → UNAVAILABLE（进入打分前 fail fast）
//   - 超时 → TIMEOUT（整批完成或整批失败，不返回部分结果）
func (e *Engine) Rank(ctx context.Context, req *core.RankRequest) (*core.RankResult, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	// 空候选列表是合法请求：返回空结果，不触发打分
	if len(req.Products) == 0 {
		return &core.RankResult{
			Query:        req.Query,
			ModelVersion: e.currentVersion(),
			Ranked:       []*core.RankedProduct{},
		}, nil
	}

	// 模型不可用时在进入特征/打分前就失败，不浪费特征解析开销。
	// 此处读到的引用即本次请求锁定的模型：打分与响应里报告的版本
	// 都用它，请求中途的热切换只影响之后发起的请求
	scorer := e.Provider.Current()
	if scorer == nil {
		return nil, core.ErrModelUnavailable
	}

	if timeout := e.Config.DefaultTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rctx := &core.RankContext{
		Query:  req.Query,
		UserID: req.UserID,
		Scorer: scorer,
		Params: map[string]any{},
	}

	items := make([]*core.Item, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, p.ToItem())
	}

	out, err := e.Pipeline.Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	ranked := make([]*core.RankedProduct, 0, len(out))
	for _, it := range out {
		ranked = append(ranked, &core.RankedProduct{
			ID:    it.ID,
			Score: it.Score,
			Title: it.MetaString("title"),
			Meta:  it.Meta,
		})
	}
	return &core.RankResult{
		Query:        req.Query,
		ModelVersion: scorer.Version(),
		Ranked:       ranked,
	}, nil
}

func (e *Engine) validate(req *core.RankRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: nil request")
	}
	if req.Query == "" {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: empty query")
	}
	if max := e.Config.MaxCandidates(); max > 0 && len(req.Products) > max {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
			fmt.Sprintf("rank: %d candidates exceed limit %d", len(req.Products), max))
	}
	seen := make(map[int64]struct{}, len(req.Products))
	for i, p := range req.Products {
		if p == nil {
			return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
				fmt.Sprintf("rank: candidate %d is nil", i))
		}
		if _, dup := seen[p.ID]; dup {
			return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
				fmt.Sprintf("rank: duplicate product id %d", p.ID))
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func (e *Engine) currentVersion() string {
	if e.Provider == nil {
		return ""
	}
	if s := e.Provider.Current(); s != nil {
		return s.Version()
	}
	return ""
}
