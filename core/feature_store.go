package core

import "context"

// FeatureRecord 是特征快照中的一行，按（归一化查询词, 商品 ID）定位。
// Features 为固定宽度的命名数值特征；Meta 携带离线管道顺带写入的展示字段。
// 快照由离线特征工程产出，对服务侧只读。
type FeatureRecord struct {
	Query     string
	ProductID int64
	Features  map[string]float64
	Meta      map[string]string
}

// FeatureStore 是特征快照的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（feature）实现
//   - 查找 miss 不是错误：返回 (nil, false)，由调用方走兜底合成
//   - 实现必须对并发读安全；快照替换采用原子引用交换，读方要么看到
//     旧快照要么看到新快照，不存在半更新状态
type FeatureStore interface {
	// Name 返回快照来源名称（用于日志/监控）
	Name() string

	// Lookup 点查（归一化查询词, 商品 ID）对应的特征行；miss 时返回 (nil, false)
	Lookup(query string, productID int64) (*FeatureRecord, bool)

	// ProductAggregates 返回商品级聚合特征（与查询词无关的 CTR、热度等）；
	// 商品无历史数据时返回 (nil, false)
	ProductAggregates(productID int64) (map[string]float64, bool)

	// Columns 返回快照携带的数值特征列名（用于校验/观测）
	Columns() []string

	// Ready 返回快照是否已成功加载（就绪探针用）
	Ready() bool
}

// AggregateProvider 是商品级聚合特征的在线兜底来源。
// 快照中没有该商品时，EnrichNode 可以再向在线存储（KV/Feast）要一次；
// 依然拿不到就按 0.0 保守兜底。
type AggregateProvider interface {
	// Name 返回提供者名称（用于日志/监控）
	Name() string

	// ProductAggregates 获取单个商品的聚合特征
	ProductAggregates(ctx context.Context, productID int64) (map[string]float64, error)
}
