package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchrank/config"
	"github.com/rushteam/searchrank/config/builders"
	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/feature"
	"github.com/rushteam/searchrank/model"
	"github.com/rushteam/searchrank/pipeline"
	"github.com/rushteam/searchrank/rank"
	"github.com/rushteam/searchrank/rerank"
	"github.com/rushteam/searchrank/service"
	"github.com/rushteam/searchrank/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "service config file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("app", "searchrank").Logger()

	if err := run(configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("service exited")
	}
}

func run(configPath string, logger zerolog.Logger) error {
	cfg, err := config.LoadServiceConfig(configPath)
	if err != nil {
		return err
	}

	// 首份快照加载失败 fail fast：没有特征就没有可用的排序
	accessor, err := feature.NewAccessorFromFile(cfg.Snapshot)
	if err != nil {
		return err
	}
	logger.Info().Str("snapshot", cfg.Snapshot).Int("rows", accessor.Len()).Msg("feature snapshot loaded")

	registry := model.NewRegistry(cfg.ModelsDir)

	// Redis 可选：聚合特征兜底 + 版本指针集中切换
	var fallback core.AggregateProvider
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rs.Close()
		fallback = feature.NewKVAggregateProvider(rs, "")
		registry.Pointer = &model.KVPointer{Store: rs}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis fallback enabled")
	}
	if cfg.Feast != nil && cfg.Feast.Host != "" {
		fp, err := feature.NewFeastAggregateProvider(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project, cfg.Feast.Features)
		if err != nil {
			return err
		}
		defer fp.Close()
		fallback = fp
		logger.Info().Str("host", cfg.Feast.Host).Msg("feast fallback enabled")
	}

	provider := model.NewProvider(registry)
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 首个模型加载失败同样 fail fast
	version, err := provider.Reload(rootCtx)
	if err != nil {
		return err
	}
	logger.Info().Str("version", version).Msg("model loaded")

	pipe, err := buildPipeline(cfg, accessor, provider, fallback)
	if err != nil {
		return err
	}
	engine := rank.NewEngine(pipe, provider, cfg.RankConfig())

	srv := service.NewServer(engine, provider, accessor, logger)
	srv.Metrics.SetModelVersion(version)
	provider.OnSwap = func(v string) {
		srv.Metrics.SetModelVersion(v)
		logger.Info().Str("version", v).Msg("model hot-swapped")
	}

	go provider.Watch(rootCtx, cfg.ModelReloadInterval)
	go watchSnapshot(rootCtx, accessor, cfg.Snapshot, cfg.SnapshotReloadInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		errCh <- srv.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-rootCtx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildPipeline 构建排序链路：优先走配置驱动，配置缺省时用默认链路。
func buildPipeline(
	cfg *config.ServiceConfig,
	accessor *feature.Accessor,
	provider core.ScorerProvider,
	fallback core.AggregateProvider,
) (*pipeline.Pipeline, error) {
	builders.Bind(accessor, provider, fallback)

	if len(cfg.Pipeline.Pipeline.Nodes) > 0 {
		if err := config.ValidatePipelineConfig(&cfg.Pipeline); err != nil {
			return nil, err
		}
		return cfg.Pipeline.BuildPipeline(config.DefaultFactory())
	}

	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&feature.EnrichNode{Store: accessor, Synth: feature.NewSynthesizer(), Fallback: fallback},
			&rank.ModelNode{Provider: provider},
			&rerank.TopNNode{N: cfg.TopN},
		},
	}, nil
}

// watchSnapshot 周期性重载特征快照；失败保持 last-known-good 继续服务。
func watchSnapshot(ctx context.Context, accessor *feature.Accessor, path string, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := accessor.LoadFile(path); err != nil {
				logger.Warn().Err(err).Msg("snapshot reload failed, keeping previous snapshot")
				continue
			}
			logger.Info().Int("rows", accessor.Len()).Msg("snapshot reloaded")
		}
	}
}
