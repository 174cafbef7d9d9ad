package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koopa0/tileroom/internal/server"
)

func main() {
	// 解析命令行參數
	var (
		port      = flag.Int("port", 8080, "明文服務端口")
		tlsPort   = flag.Int("tls-port", 8443, "加密服務端口（需同時提供憑證）")
		tlsCert   = flag.String("tls-cert", "", "TLS 憑證路徑")
		tlsKey    = flag.String("tls-key", "", "TLS 私鑰路徑")
		logLevel  = flag.String("log-level", "info", "日誌級別 (debug, info, warn, error)")
		logFormat = flag.String("log-format", "text", "日誌格式 (text, json)")
	)
	flag.Parse()

	// 設置日誌
	logger := setupLogger(*logLevel, *logFormat)

	// 房間註冊表與連接會話處理器
	registry := server.NewRegistry(logger)
	sessions := server.NewSessionHandler(registry, logger)
	handler := server.NewHandler(registry, logger)

	// 設置路由
	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())

	// WebSocket 入口（升級需要劫持連接，不經過中間件）
	mux.HandleFunc("GET /ws", sessions.ServeWS)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", *port),
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("遊戲房間服務器啟動", "port", *port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("服務器啟動失敗", "error", err)
			os.Exit(1)
		}
	}()

	// 客戶端依頁面自身的傳輸安全選擇端口：加密變體另起一個監聽
	var tlsSrv *http.Server
	if *tlsCert != "" && *tlsKey != "" {
		tlsSrv = &http.Server{
			Addr:        fmt.Sprintf(":%d", *tlsPort),
			Handler:     mux,
			IdleTimeout: 60 * time.Second,
		}
		go func() {
			logger.Info("加密服務啟動", "port", *tlsPort)
			if err := tlsSrv.ListenAndServeTLS(*tlsCert, *tlsKey); err != nil && err != http.ErrServerClosed {
				logger.Error("加密服務啟動失敗", "error", err)
				os.Exit(1)
			}
		}()
	}

	// 等待中斷信號
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("收到關閉信號，開始優雅關閉...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 停止接受新連接
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服務器關閉失敗", "error", err)
	}
	if tlsSrv != nil {
		if err := tlsSrv.Shutdown(ctx); err != nil {
			logger.Error("加密服務關閉失敗", "error", err)
		}
	}

	// WebSocket 連接是被劫持的，Shutdown 不會關閉它們：
	// 由註冊表停止所有房間，外送佇列關閉帶動寫入迴圈收尾
	registry.Stop()

	logger.Info("服務器已關閉")
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug", // debug 模式顯示源碼位置
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
