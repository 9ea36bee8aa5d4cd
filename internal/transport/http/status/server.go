// Package statushttp serves the read-only status API of the bot: what
// the current run is doing, what the terminal reported, and what the
// backfill still owes. It never writes anything to the terminal.
package statushttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sorul/tradingbot/internal/bridge"
	"github.com/sorul/tradingbot/internal/instruments"
	"github.com/sorul/tradingbot/internal/logger"
)

// BridgeSource hands out the bridge of the run in progress, nil when
// the bot is between runs. The trader implements it.
type BridgeSource interface {
	LiveBridge() *bridge.Bridge
}

// Server 提供只读状态查询的 HTTP 服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 status HTTP 服务依赖。
type ServerConfig struct {
	Addr     string
	Source   BridgeSource
	Registry *instruments.Registry
}

// NewServer 构建 status HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("status http server requires a bridge source")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9920"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	statusRouter := NewRouter(cfg.Source, cfg.Registry)
	statusRouter.Register(router.Group("/api/v1"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// requestLogger 记录接口调用，便于追踪外部查询。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, status, client, dur)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler 返回底层 HTTP handler，便于测试或挂载到已有服务。
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
