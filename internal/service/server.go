package service

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server 报警服务 HTTP 入口
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer 创建 HTTP 服务
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start 启动监听（阻塞）
func (s *Server) Start() error {
	s.logger.Info("Starting inkomba-alerts HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping inkomba-alerts HTTP server")
	return s.httpServer.Shutdown(ctx)
}
