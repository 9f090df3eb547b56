package service

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/searchrank/core"
	"github.com/rushteam/searchrank/feature"
	"github.com/rushteam/searchrank/rank"
)

// Server 是排序服务的 HTTP 入口，挂三个端点：
//
//	POST /rank    排序请求
//	GET  /health  健康检查（含模型版本与快照规模）
//	GET  /metrics Prometheus 指标
type Server struct {
	Engine   *rank.Engine
	Provider core.ScorerProvider
	Accessor *feature.Accessor
	Metrics  *Metrics
	Logger   zerolog.Logger

	echo *echo.Echo
}

func NewServer(engine *rank.Engine, provider core.ScorerProvider, accessor *feature.Accessor, logger zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := &Server{
		Engine:   engine,
		Provider: provider,
		Accessor: accessor,
		Metrics:  NewMetrics(reg),
		Logger:   logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// 统一错误出口：结构化 JSON + 日志
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		resp := errorResponse{Error: err.Error()}
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				resp.Error = msg
			}
		}
		s.Logger.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Msg("request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, resp)
		}
	}

	e.GET("/", s.handleRoot)
	e.POST("/rank", s.handleRank)
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	s.echo = e
	return s
}

// Handler 暴露底层 http.Handler（测试用）。
func (s *Server) Handler() http.Handler { return s.echo }

// Start 启动 HTTP 服务，阻塞直到出错或 Shutdown。
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown 优雅停止：等待在途请求完成。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleRoot 返回服务描述，方便人肉探活和网关路由验证。
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service":     "searchrank",
		"description": "e-commerce search ranking service",
	})
}

func (s *Server) handleRank(c echo.Context) error {
	s.Metrics.ActiveRequests.Inc()
	defer s.Metrics.ActiveRequests.Dec()

	start := time.Now()
	status := "success"
	defer func() {
		s.Metrics.RequestsTotal.WithLabelValues(status).Inc()
		s.Metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	var req rankRequest
	if err := c.Bind(&req); err != nil {
		status = "client_error"
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: core.ErrorCodeInvalidInput})
	}
	if err := req.validate(); err != nil {
		status = "client_error"
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: core.ErrorCodeInvalidInput})
	}

	result, err := s.Engine.Rank(c.Request().Context(), req.toDomain())
	if err != nil {
		return s.rankError(c, err, &status)
	}

	s.Metrics.SetModelVersion(result.ModelVersion)
	s.Logger.Info().
		Str("query", req.Query).
		Int("candidates", len(req.Products)).
		Str("model_version", result.ModelVersion).
		Dur("elapsed", time.Since(start)).
		Msg("rank request served")
	return c.JSON(http.StatusOK, toResponse(result))
}

// rankError 把领域错误映射为 HTTP 状态码，不把内部细节透传给调用方。
func (s *Server) rankError(c echo.Context, err error, status *string) error {
	de := core.GetDomainError(err)
	switch {
	case de != nil && de.Code == core.ErrorCodeInvalidInput:
		*status = "client_error"
		return c.JSON(http.StatusBadRequest, errorResponse{Error: de.Message, Code: de.Code})
	case core.IsUnavailable(err):
		*status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ranking model unavailable", Code: core.ErrorCodeUnavailable})
	case core.IsTimeout(err):
		*status = "error"
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ranking timed out", Code: core.ErrorCodeTimeout})
	default:
		*status = "error"
		s.Logger.Error().Err(err).Msg("rank failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: core.ErrorCodeInternalError})
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok"}
	if s.Accessor != nil {
		resp.SnapshotRows = s.Accessor.Len()
	}

	scorer := s.Provider.Current()
	switch {
	case scorer == nil:
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	case s.Provider.Degraded():
		resp.Status = "degraded"
		resp.ModelVersion = scorer.Version()
	default:
		resp.ModelVersion = scorer.Version()
	}
	return c.JSON(http.StatusOK, resp)
}
