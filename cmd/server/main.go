// Package main 是文档问答服务端的入口点。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contextai-go/internal/config"
	"contextai-go/internal/handler"
	"contextai-go/internal/middleware"
	"contextai-go/internal/pipeline"
	"contextai-go/internal/repository"
	"contextai-go/internal/service"
	"contextai-go/pkg/database"
	"contextai-go/pkg/embedding"
	"contextai-go/pkg/es"
	"contextai-go/pkg/kafka"
	"contextai-go/pkg/llm"
	"contextai-go/pkg/log"
	"contextai-go/pkg/storage"
	"contextai-go/pkg/tika"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config.yaml")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化基础设施
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis)
	objectStore, err := storage.InitMinIO(initCtx, cfg.MinIO)
	if err != nil {
		log.Fatal("MinIO 初始化失败", err)
	}
	esStore, err := es.InitES(initCtx, cfg.Elasticsearch, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatal("es 初始化失败", err)
	}
	cancelInit()
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. 初始化 Repository
	documentRepo := repository.NewDocumentRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	processor := pipeline.NewProcessor(tikaClient, embeddingClient, esStore, chunkRepo, cfg.Ingest)
	documentService := service.NewDocumentService(objectStore, processor, documentRepo, producer)
	searchService := service.NewSearchService(embeddingClient, esStore)
	conversationService := service.NewConversationService(documentRepo, conversationRepo)
	chatService := service.NewChatService(documentRepo, searchService, llmClient, conversationRepo, cfg.Ingest.TopK)

	// 6. 后台导入种子目录中的文件，已存在同名文档则跳过
	seedCtx, cancelSeed := context.WithCancel(context.Background())
	defer cancelSeed()
	go seedDocuments(seedCtx, cfg.Server.SeedDir, documentService)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins), middleware.RequestLogger(), gin.Recovery())

	handler.RegisterRoutes(r, handler.Handlers{
		Upload:       handler.NewUploadHandler(documentService),
		Document:     handler.NewDocumentHandler(documentService),
		Chat:         handler.NewChatHandler(chatService),
		Conversation: handler.NewConversationHandler(conversationService),
		Search:       handler.NewSearchHandler(searchService, cfg.Ingest.TopK),
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
