// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/internal/handler"
	"opioid-chat-go/internal/middleware"
	"opioid-chat-go/internal/model"
	"opioid-chat-go/internal/pipeline"
	"opioid-chat-go/internal/postprocess"
	"opioid-chat-go/internal/relevance"
	"opioid-chat-go/internal/repository"
	"opioid-chat-go/internal/service"
	"opioid-chat-go/pkg/crawler"
	"opioid-chat-go/pkg/database"
	"opioid-chat-go/pkg/llm"
	"opioid-chat-go/pkg/log"
	"opioid-chat-go/pkg/search"
	"opioid-chat-go/pkg/translate"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitPostgres(cfg.Database.Postgres.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.Feedback{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	// 4. 初始化 Repository
	feedbackRepo := repository.NewFeedbackRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)

	// 5. 初始化外部服务客户端
	llmClient := llm.NewClient(cfg.LLM)
	translateClient := translate.NewClient(cfg.Translate)
	searcher := search.NewSearcher(cfg.Search)

	// 6. 初始化后台抓取刷新任务：抓取内容的新鲜度与请求延迟解耦
	crawlCache := pipeline.NewCrawlCache(database.RDB)
	pageCrawler := crawler.New(cfg.Crawler, relevance.ContainsRelevantTopic)
	refresher := pipeline.NewRefresher(pageCrawler, crawlCache, cfg.Crawler)
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go refresher.Start(refreshCtx)

	// 7. 初始化 Service (依赖注入)
	classifier := relevance.NewKeywordClassifier()
	contextService := service.NewContextService(cfg.Context, crawlCache)
	processor := postprocess.NewProcessor(searcher, cfg.Search.TopK)
	chatService := service.NewChatService(classifier, contextService, llmClient, processor, conversationRepo, cfg.Context, cfg.LLM.Prompt)
	feedbackService := service.NewFeedbackService(feedbackRepo, cfg.Feedback)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(cors.Default()) // 允许所有来源，与前端托管分离的部署方式一致

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService, translateClient)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	translateHandler := handler.NewTranslateHandler(translateClient)
	systemHandler := handler.NewSystemHandler()

	r.GET("/", systemHandler.Index)
	r.GET("/env", systemHandler.Env)
	r.POST("/ask", chatHandler.Ask)
	r.POST("/voice", chatHandler.Voice)
	r.GET("/chat", chatHandler.HandleWebSocket)
	r.POST("/translate", translateHandler.Translate)
	r.POST("/feedback", feedbackHandler.Submit)
	r.GET("/view_feedback", feedbackHandler.View)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	cancelRefresh()

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
