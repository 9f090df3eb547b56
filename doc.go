// Package searchrank 是一个电商搜索排序服务工具包（Search Ranking Kit）。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Feature → Rank → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 热切换: 特征快照与模型工件均通过原子引用交换在线换载，不中断在途请求
package searchrank

import "github.com/rushteam/searchrank/pipeline"

// 轻量 facade：便于用户直接 import "searchrank" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFeature     = pipeline.KindFeature
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
