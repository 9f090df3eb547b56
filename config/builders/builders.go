package builders

import (
	"fmt"

	"github.com/rushteam/searchrank/config"
	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/feature"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/pkg/conv"
	"github.com/rushteam/searchrank/rank"
	"github.com/rushteam/searchrank/rerank"
)

func init() {
	config.Register("feature.enrich", BuildEnrichNode)
	config.Register("rank.model", BuildModelNode)
	config.Register("rerank.rule", BuildRuleNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// 运行期依赖（特征快照、模型提供者、在线兜底）无法从 YAML 构建，
// 启动方在构建 Pipeline 前先 Bind 注入。
var runtime struct {
	store    core.FeatureStore
	provider core.ScorerProvider
	fallback core.AggregateProvider
}

// Bind 注入配置驱动构建所需的运行期依赖。
// 必须在 BuildPipeline 之前调用；fallback 可为 nil。
func Bind(store core.FeatureStore, provider core.ScorerProvider, fallback core.AggregateProvider) {
	runtime.store = store
	runtime.provider = provider
	runtime.fallback = fallback
}

func BuildEnrichNode(cfg map[string]interface{}) (pipeline.Node, error) {
	if runtime.store == nil {
		return nil, fmt.Errorf("feature.enrich requires a bound feature store (call builders.Bind)")
	}
	n := &feature.EnrichNode{
		Store:    runtime.store,
		Synth:    feature.NewSynthesizer(),
		Fallback: runtime.fallback,
	}
	if c := conv.ConfigGetInt64(cfg, "max_concurrent", 0); c > 0 {
		n.MaxConcurrent = int(c)
	}
	return n, nil
}

func BuildModelNode(cfg map[string]interface{}) (pipeline.Node, error) {
	if runtime.provider == nil {
		return nil, fmt.Errorf("rank.model requires a bound scorer provider (call builders.Bind)")
	}
	return &rank.ModelNode{Provider: runtime.provider}, nil
}

func BuildRuleNode(cfg map[string]interface{}) (pipeline.Node, error) {
	rulesConfig, ok := cfg["rules"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("rules not found or invalid")
	}
	rules := make([]rerank.Rule, 0, len(rulesConfig))
	for _, rc := range rulesConfig {
		ruleMap, ok := rc.(map[string]interface{})
		if !ok {
			continue
		}
		rule := rerank.Rule{
			Name:  conv.ConfigGet(ruleMap, "name", ""),
			When:  conv.ConfigGet(ruleMap, "when", ""),
			Boost: conv.ConfigGet(ruleMap, "boost", 1.0),
		}
		if b, ok := conv.ToFloat64(ruleMap["boost"]); ok {
			rule.Boost = b
		}
		rules = append(rules, rule)
	}
	return &rerank.RuleNode{Rules: rules}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	return &rerank.TopNNode{N: int(n)}, nil
}
