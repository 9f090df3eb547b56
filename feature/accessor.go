package feature

import (
	"sync/atomic"

	"github.com/rushteam/searchrank/core"
)

// Accessor 是特征快照的运行期访问器，实现 core.FeatureStore。
//
// 并发模型：
//   - 快照加载后不可变，任意并发读无需加锁
//   - 换载（Reload）通过原子引用交换完成：读方要么看到旧快照，
//     要么看到新快照，不存在半更新状态
//   - 换载失败保持上一份可用快照继续服务（last-known-good）
type Accessor struct {
	snap atomic.Pointer[Snapshot]
}

func NewAccessor() *Accessor {
	return &Accessor{}
}

// NewAccessorFromFile 创建访问器并加载首份快照。
func NewAccessorFromFile(path string) (*Accessor, error) {
	a := NewAccessor()
	if err := a.LoadFile(path); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Accessor) Name() string { return "snapshot" }

// LoadFile 加载（或重新加载）快照文件并原子切换。
// 加载失败时不触碰当前快照。
func (a *Accessor) LoadFile(path string) error {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return err
	}
	a.Swap(snap)
	return nil
}

// Swap 原子替换当前快照。
func (a *Accessor) Swap(snap *Snapshot) {
	a.snap.Store(snap)
}

// Lookup 点查；快照未就绪或 miss 时返回 (nil, false)。
func (a *Accessor) Lookup(query string, productID int64) (*core.FeatureRecord, bool) {
	snap := a.snap.Load()
	if snap == nil {
		return nil, false
	}
	return snap.Lookup(query, productID)
}

// ProductAggregates 返回商品级聚合特征。
func (a *Accessor) ProductAggregates(productID int64) (map[string]float64, bool) {
	snap := a.snap.Load()
	if snap == nil {
		return nil, false
	}
	return snap.ProductAggregates(productID)
}

// Columns 返回当前快照的数值特征列名；未就绪时返回 nil。
func (a *Accessor) Columns() []string {
	snap := a.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.Columns()
}

// Len 返回当前快照的（查询词, 商品）行数；未就绪时为 0。
func (a *Accessor) Len() int {
	snap := a.snap.Load()
	if snap == nil {
		return 0
	}
	return snap.Len()
}

// Ready 返回是否已有可用快照（就绪探针用）。
func (a *Accessor) Ready() bool {
	return a.snap.Load() != nil
}

var _ core.FeatureStore = (*Accessor)(nil)
