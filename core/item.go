package core

import "github.com/rushteam/searchrank/pkg/utils"

// Item 是排序链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
//
// 一个 Item 对应请求中的一个候选商品；Features 在特征阶段填充，
// Score 在打分阶段写入，Meta 携带透传的展示字段（标题、价格等）。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 获取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}

// MetaString 按 key 取 Meta 中的字符串值，取不到时返回空串。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	if s, ok := it.Meta[key].(string); ok {
		return s
	}
	return ""
}
