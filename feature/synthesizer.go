package feature

import (
	"strings"

	"github.com/rushteam/searchrank/core"
)

// Synthesizer 在（查询词, 商品）对缺席于快照时合成一份尽力而为的特征向量。
//
// 兜底策略（是策略选择，不是错误）：
//   - 商品级聚合特征（CTR、热度等）有则用，无则 0.0
//   - 查询相关特征（query_ctr 等）一律 0.0 —— 没有历史就保守打分
//   - 文本相似度现算：查询词与商品标题的词集重合度
//
// 纯函数，无副作用：新上架商品没有任何历史也必须可排序。
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize 合成特征向量。aggs 为商品级聚合特征（可为 nil）。
func (s *Synthesizer) Synthesize(query string, item *core.Item, aggs map[string]float64) map[string]float64 {
	features := make(map[string]float64, len(aggs)+4)
	for k, v := range aggs {
		features[k] = v
	}

	// 请求自带的基础特征（价格/评分）优先于聚合值
	for k, v := range item.Features {
		features[k] = v
	}

	features["tfidf_similarity"] = TokenSimilarity(query, item.MetaString("title"))
	return features
}

// TokenSimilarity 计算两段文本的词集重合度（Jaccard）。
// 对称归一化：相同词集得 1.0，完全不相交得 0.0；任一侧为空得 0.0。
func TokenSimilarity(a, b string) float64 {
	aTokens := tokenSet(a)
	bTokens := tokenSet(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range aTokens {
		if bTokens[t] {
			intersection++
		}
	}
	union := len(aTokens) + len(bTokens) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
