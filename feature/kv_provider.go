package feature

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/searchrank/core"
)

// KVAggregateProvider 从 KeyValueStore 读取商品级聚合特征，作为快照缺口的在线兜底。
// 每个商品一个 Hash：key 为 "{prefix}{productID}"，field 为特征名，value 为数值文本。
//
// 实现无状态，memory（测试）与 redis（生产）后端皆可。
type KVAggregateProvider struct {
	kv     core.KeyValueStore
	prefix string
}

// NewKVAggregateProvider 创建 KV 聚合特征提供者；prefix 为空时使用 "product:aggs:"。
func NewKVAggregateProvider(kv core.KeyValueStore, prefix string) *KVAggregateProvider {
	if prefix == "" {
		prefix = "product:aggs:"
	}
	return &KVAggregateProvider{kv: kv, prefix: prefix}
}

func (p *KVAggregateProvider) Name() string { return "kv:" + p.kv.Name() }

// ProductAggregates 读取单个商品的全部聚合特征。
// 商品不存在时返回 ErrStoreNotFound；无法解析为数值的字段被跳过。
func (p *KVAggregateProvider) ProductAggregates(ctx context.Context, productID int64) (map[string]float64, error) {
	fields, err := p.kv.HGetAll(ctx, p.prefix+strconv.FormatInt(productID, 10))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, core.ErrStoreNotFound
	}

	aggs := make(map[string]float64, len(fields))
	for name, raw := range fields {
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			continue
		}
		aggs[name] = v
	}
	return aggs, nil
}

// PutProductAggregates 写入商品聚合特征（离线管道回填用）。
func (p *KVAggregateProvider) PutProductAggregates(ctx context.Context, productID int64, aggs map[string]float64) error {
	key := p.prefix + strconv.FormatInt(productID, 10)
	for name, v := range aggs {
		if err := p.kv.HSet(ctx, key, name, []byte(fmt.Sprintf("%g", v))); err != nil {
			return err
		}
	}
	return nil
}

var _ core.AggregateProvider = (*KVAggregateProvider)(nil)
