package feature

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/pkg/utils"
)

// EnrichNode 是特征补全 Node：对每个候选商品解析（查询词, 商品）特征。
//
// 解析顺序：
//  1. 快照点查（归一化查询词, 商品 ID）
//  2. miss 时走合成兜底：快照中的商品级聚合 → 在线 Fallback 提供者 → 0.0
//
// 单个候选的解析失败（如脏标题导致相似度计算 panic）只影响该候选：
// 打上 feature_source=default 标签、用保守默认特征继续，绝不让一条坏
// 记录拖垮整批排序。
type EnrichNode struct {
	Store core.FeatureStore
	Synth *Synthesizer

	// Fallback 是可选的在线聚合特征来源（KV/Feast）；
	// 只在快照中完全没有该商品时使用
	Fallback core.AggregateProvider

	// MaxConcurrent 限制并发解析数（0 表示逐个处理）
	MaxConcurrent int
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Store == nil || len(items) == 0 {
		return items, nil
	}

	query := NormalizeQuery(rctx.Query)

	if n.MaxConcurrent <= 1 {
		for _, it := range items {
			if it == nil {
				continue
			}
			n.resolve(ctx, query, it)
		}
		return items, nil
	}

	// 候选之间相互独立，各自只写自己的 Item，无共享可变状态
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(n.MaxConcurrent)
	for _, it := range items {
		if it == nil {
			continue
		}
		it := it
		eg.Go(func() error {
			n.resolve(egCtx, query, it)
			return nil
		})
	}
	_ = eg.Wait()
	return items, nil
}

// resolve 解析单个候选的特征；任何异常都被就地吸收为保守默认值。
func (n *EnrichNode) resolve(ctx context.Context, query string, it *core.Item) {
	defer func() {
		if r := recover(); r != nil {
			it.PutLabel("feature_source", utils.Label{Value: "default", Source: "feature"})
		}
	}()

	if rec, ok := n.Store.Lookup(query, it.ID); ok {
		for k, v := range rec.Features {
			it.Features[k] = v
		}
		it.PutLabel("feature_source", utils.Label{Value: "store", Source: "feature"})
		return
	}

	aggs, ok := n.Store.ProductAggregates(it.ID)
	if !ok && n.Fallback != nil {
		if online, err := n.Fallback.ProductAggregates(ctx, it.ID); err == nil {
			aggs = online
		}
		// 在线兜底失败不报错：继续用 0.0 默认值
	}

	synth := n.Synth
	if synth == nil {
		synth = NewSynthesizer()
	}
	for k, v := range synth.Synthesize(query, it, aggs) {
		it.Features[k] = v
	}
	it.PutLabel("feature_source", utils.Label{Value: "synthesized", Source: "feature"})
}
