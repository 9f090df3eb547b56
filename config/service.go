package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/pipeline"
)

// ServiceConfig 是排序服务的启动配置（YAML）。
//
// 示例：
//
//	addr: ":8080"
//	snapshot: data/features.csv
//	models_dir: models
//	snapshot_reload_interval: 5m
//	model_reload_interval: 30s
//	request_timeout: 50ms
//	max_candidates: 500
//	redis:
//	  addr: "127.0.0.1:6379"
//	feast:
//	  host: "127.0.0.1"
//	  port: 6566
//	  project: search
//	pipeline:
//	  name: search-rank
//	  nodes:
//	    - type: feature.enrich
//	    - type: rank.model
//	    - type: rerank.topn
//	      config: { n: 50 }
type ServiceConfig struct {
	Addr string `yaml:"addr"`

	// Snapshot 是离线特征快照文件路径
	Snapshot string `yaml:"snapshot"`
	// ModelsDir 是模型工件目录（含版本指针文件）
	ModelsDir string `yaml:"models_dir"`

	SnapshotReloadInterval time.Duration `yaml:"snapshot_reload_interval"`
	ModelReloadInterval    time.Duration `yaml:"model_reload_interval"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	TopN           int           `yaml:"topn"`
	MaxCandidatesN int           `yaml:"max_candidates"`

	// Redis 可选：在线聚合特征兜底 + KV 版本指针
	Redis *RedisConfig `yaml:"redis"`
	// Feast 可选：Feast 在线特征兜底
	Feast *FeastConfig `yaml:"feast"`

	Pipeline pipeline.Config `yaml:",inline"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FeastConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Project string `yaml:"project"`
	// Features 是要在线点查的特征引用列表，如 ["product_stats:ctr"]
	Features []string `yaml:"features"`
}

// LoadServiceConfig 从 YAML 文件加载服务配置并填充默认值。
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 允许用环境变量覆盖部署相关的地址/路径（容器环境常用）。
func (c *ServiceConfig) applyEnv() {
	if v := os.Getenv("SEARCHRANK_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SEARCHRANK_SNAPSHOT"); v != "" {
		c.Snapshot = v
	}
	if v := os.Getenv("SEARCHRANK_MODELS_DIR"); v != "" {
		c.ModelsDir = v
	}
	if v := os.Getenv("SEARCHRANK_REDIS_ADDR"); v != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.Addr = v
	}
}

func (c *ServiceConfig) applyDefaults() {
	def := &core.DefaultRankConfig{}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.DefaultTimeout()
	}
	if c.MaxCandidatesN <= 0 {
		c.MaxCandidatesN = def.MaxCandidates()
	}
	if c.SnapshotReloadInterval <= 0 {
		c.SnapshotReloadInterval = 5 * time.Minute
	}
	if c.ModelReloadInterval <= 0 {
		c.ModelReloadInterval = 30 * time.Second
	}
}

func (c *ServiceConfig) validate() error {
	if c.Snapshot == "" {
		return fmt.Errorf("config: snapshot path is required")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("config: models_dir is required")
	}
	return nil
}

// RankConfig 把服务配置适配为 core.RankConfig。
func (c *ServiceConfig) RankConfig() core.RankConfig {
	return &rankConfig{c}
}

type rankConfig struct{ c *ServiceConfig }

func (r *rankConfig) DefaultTimeout() time.Duration { return r.c.RequestTimeout }
func (r *rankConfig) DefaultTopN() int              { return r.c.TopN }
func (r *rankConfig) MaxCandidates() int            { return r.c.MaxCandidatesN }
