package core

import "time"

// RankConfig 是排序相关的配置接口，用于提供默认值。
type RankConfig interface {
	// DefaultTimeout 返回单次排序请求的默认超时时间
	DefaultTimeout() time.Duration

	// DefaultTopN 返回默认的截断数量（<=0 表示不截断）
	DefaultTopN() int

	// MaxCandidates 返回单次请求允许的最大候选数
	MaxCandidates() int
}

// DefaultRankConfig 是默认的排序配置实现。
type DefaultRankConfig struct{}

func (c *DefaultRankConfig) DefaultTimeout() time.Duration {
	return 50 * time.Millisecond
}

func (c *DefaultRankConfig) DefaultTopN() int {
	return 0
}

func (c *DefaultRankConfig) MaxCandidates() int {
	return 500
}
