package model

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/searchrank/core"
)

// Provider 持有"当前模型工件"并支持运行期热切换，实现 core.ScorerProvider。
//
// 热切换契约：
//   - 工件通过原子引用交换替换，切换前发起的请求全程用旧工件，
//     切换后发起的请求全程用新工件，不存在混用状态
//   - 切换失败保持 last-known-good 工件继续服务，置降级标记，
//     由健康检查上报 degraded，而不是让服务崩掉
type Provider struct {
	registry *Registry
	cur      atomic.Pointer[Artifact]
	degraded atomic.Bool

	// 并发 Reload 合并成一次真实加载
	sf singleflight.Group

	// OnSwap 在成功切换到新版本后回调（打日志/改指标用），可为 nil
	OnSwap func(version string)
}

func NewProvider(registry *Registry) *Provider {
	return &Provider{registry: registry}
}

// Current 返回当前工件；尚未加载成功时返回 nil。
func (p *Provider) Current() core.Scorer {
	a := p.cur.Load()
	if a == nil {
		return nil
	}
	return a
}

// Degraded 返回是否处于降级状态（最近一次热切换失败）。
func (p *Provider) Degraded() bool {
	return p.degraded.Load()
}

// Reload 读取版本指针并在版本变化时加载、原子切换。
// 返回当前生效的版本号。失败时：
//   - 已有可用工件 → 保留旧工件、置降级标记、返回错误
//   - 还没有任何工件 → 返回错误（启动方应 fail fast）
func (p *Provider) Reload(ctx context.Context) (string, error) {
	v, err, _ := p.sf.Do("reload", func() (interface{}, error) {
		return p.reload(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Provider) reload(ctx context.Context) (string, error) {
	version, err := p.registry.CurrentVersion(ctx)
	if err != nil {
		p.markFailed()
		return "", err
	}

	if cur := p.cur.Load(); cur != nil && cur.Version() == version {
		return version, nil
	}

	artifact, err := p.registry.Load(version)
	if err != nil {
		p.markFailed()
		return "", err
	}

	p.cur.Store(artifact)
	p.degraded.Store(false)
	if p.OnSwap != nil {
		p.OnSwap(artifact.Version())
	}
	return artifact.Version(), nil
}

func (p *Provider) markFailed() {
	// 只有在已有可用工件时才算"降级"；冷启动失败是硬错误
	if p.cur.Load() != nil {
		p.degraded.Store(true)
	}
}

// Watch 周期性轮询版本指针，发现新版本即热切换。
// 阻塞直到 ctx 取消；通常放在独立 goroutine 中运行。
// 轮询失败不中断循环（服务继续用 last-known-good 工件）。
func (p *Provider) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Reload(ctx)
		}
	}
}

var _ core.ScorerProvider = (*Provider)(nil)
