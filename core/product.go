package core

// Product 是请求方提供的候选商品实体，请求生命周期内不可变。
// ID 在单个请求内唯一；Title 参与相似度兜底计算。
type Product struct {
	ID          int64
	Title       string
	Price       float64
	Category    string
	Description string
	Brand       string
	Rating      float64
	Tags        []string
}

// ToItem 将 Product 转换为链路承载的 Item。
// 展示字段进 Meta，价格/评分作为基础特征进 Features。
func (p *Product) ToItem() *Item {
	it := NewItem(p.ID)
	it.Meta["title"] = p.Title
	it.Meta["category"] = p.Category
	if p.Brand != "" {
		it.Meta["brand"] = p.Brand
	}
	if p.Description != "" {
		it.Meta["description"] = p.Description
	}
	it.Features["price"] = p.Price
	it.Features["rating"] = p.Rating
	return it
}

// RankRequest 是一次排序请求：查询词 + 用户标识 + 候选商品列表。
// UserID 只用于日志与监控，不参与打分。
type RankRequest struct {
	Query    string
	UserID   string
	Products []*Product
}

// RankedProduct 是排序结果中的单个商品：分数越高越靠前。
type RankedProduct struct {
	ID    int64
	Score float64
	Title string
	Meta  map[string]any
}

// RankResult 是一次排序请求的完整输出。
// 不变式：len(Ranked) 与请求候选数一致（TopN 截断除外），无丢失、无重复。
type RankResult struct {
	Query        string
	ModelVersion string
	Ranked       []*RankedProduct
}
