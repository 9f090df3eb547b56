package feature

import (
	"context"
	"fmt"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/searchrank/core"
)

// FeastAggregateProvider 从 Feast Feature Server 在线获取商品级聚合特征。
//
// Feast 是开源 Feature Store，离线管道把聚合特征物化到在线存储后，
// 本提供者通过官方 Go SDK（gRPC）按商品实体点查。
//
// 使用场景：快照尚未覆盖的新商品，先问在线存储再落 0.0 兜底。
type FeastAggregateProvider struct {
	client  *feastsdk.GrpcClient
	project string

	// EntityKey 是商品实体在 Feast 中的实体名，默认 "product_id"
	entityKey string

	// Features 是要取的特征引用列表，例如 ["product_stats:ctr", "product_stats:popularity"]
	features []string
}

// NewFeastAggregateProvider 创建 Feast 聚合特征提供者。
func NewFeastAggregateProvider(host string, port int, project string, features []string) (*FeastAggregateProvider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: create grpc client: %w", err)
	}
	return &FeastAggregateProvider{
		client:    client,
		project:   project,
		entityKey: "product_id",
		features:  features,
	}, nil
}

func (p *FeastAggregateProvider) Name() string { return "feast" }

// ProductAggregates 点查单个商品的聚合特征。
// 特征引用 "view:name" 在结果中按 "name" 落键，与快照列名对齐。
func (p *FeastAggregateProvider) ProductAggregates(ctx context.Context, productID int64) (map[string]float64, error) {
	if len(p.features) == 0 {
		return nil, core.ErrStoreNotFound
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: p.features,
		Entities: []feastsdk.Row{
			{p.entityKey: feastsdk.Int64Val(productID)},
		},
		Project: p.project,
	}

	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, core.ErrStoreNotFound
	}

	aggs := make(map[string]float64, len(p.features))
	for _, ref := range p.features {
		val, ok := rows[0][ref]
		if !ok {
			continue
		}
		if f, ok := valueToFloat(val); ok {
			aggs[featureName(ref)] = f
		}
	}
	if len(aggs) == 0 {
		return nil, core.ErrStoreNotFound
	}
	return aggs, nil
}

// Close 关闭底层 gRPC 连接。
func (p *FeastAggregateProvider) Close() error {
	return p.client.Close()
}

// featureName 从特征引用 "view:name" 中取特征名部分。
func featureName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// valueToFloat 把 Feast 的 Value 转成 float64（仅数值类型）。
func valueToFloat(v *feasttypes.Value) (float64, bool) {
	switch x := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return x.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(x.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(x.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(x.Int32Val), true
	default:
		return 0, false
	}
}

var _ core.AggregateProvider = (*FeastAggregateProvider)(nil)
