package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ezymap/ai"
	"ezymap/amap"
	"ezymap/config"
	"ezymap/db"
	"ezymap/handler"
	"ezymap/route"
	"ezymap/search"
	"ezymap/utils"
)

func main() {
	log.Info("=== EzyMap - AI 增强的 POI 搜索服务 ===")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	setupLogger(cfg.Log)

	// 2. 初始化数据库
	// 连接 PostgreSQL，自动迁移 users 和 search_records 表
	conn, err := db.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	store := db.NewStore(conn)

	// 3. 外部服务客户端
	amapClient := amap.NewClient(cfg.Amap)
	aiClient := ai.NewClient(cfg.AI)
	if !aiClient.Enabled() {
		log.WithField("prefix", "main").Warn("未配置 DeepSeek API Key，搜索将直接使用原始关键词")
	}

	// 分词词典加载较慢，启动时完成
	transliterator := utils.NewTransliterator(nil)
	transliterator.Warm()

	var translator search.Translator
	if cfg.Search.TranslateByAI {
		translator = aiClient
	}

	h := handler.New(handler.Services{
		Searcher:  search.NewSearcher(amapClient, aiClient, cfg.Search),
		Processor: search.NewProcessor(translator, transliterator, cfg.Search.TranslationTTL),
		Places:    amapClient,
		Planner:   route.NewPlanner(amapClient),
		Users:     store,
		History:   store,
	}, cfg.Auth, cfg.Search)

	// 4. 初始化 Gin 引擎
	if !cfg.Server.TraceMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(cfg.Server.TraceMode))

	// 5. 配置路由
	h.SetupRoutes(r)

	// 6. 启动服务器
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.WithField("prefix", "main").Infof("服务器启动: %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.WithField("prefix", "main").Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务器强制关闭: %v", err)
	}

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
	log.WithField("prefix", "main").Info("服务器已退出")
}

// setupLogger 设置日志级别和格式
func setupLogger(cfg config.LogConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("无效的日志级别 %q，使用 info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
