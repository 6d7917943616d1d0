package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aihub/rag-service/internal/auth"
	"github.com/aihub/rag-service/internal/config"
	"github.com/aihub/rag-service/internal/database"
	"github.com/aihub/rag-service/internal/logger"
	"github.com/aihub/rag-service/internal/rag"
	"github.com/aihub/rag-service/internal/services"
)

// App 应用容器，启动时构造一次，所有依赖显式注入
type App struct {
	DB              *gorm.DB
	JWTService      *auth.JWTService
	Pipeline        *rag.Pipeline
	UserService     *services.UserService
	DocumentService *services.DocumentService
}

var globalApp *App

// GetApp 获取全局应用实例
func GetApp() *App {
	return globalApp
}

// Init 初始化应用：配置 → 日志 → 数据库 → 模型服务 → 向量库 → 业务服务
func Init() (*App, error) {
	_ = godotenv.Load()

	if err := config.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.AppConfig

	if err := logger.InitLogger(); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.InitDB()
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer,
		time.Duration(cfg.JWT.ExpiresIn)*time.Hour)

	ollama := rag.NewOllamaService(cfg.Ollama)
	store := rag.NewQdrantStore(cfg.Qdrant)

	// 启动时确保集合与payload索引就绪，幂等
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure vector collection: %w", err)
	}

	pipeline := rag.NewPipeline(
		rag.NewExtractorManager(),
		rag.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap),
		ollama,
		ollama,
		store,
	)

	app := &App{
		DB:              db,
		JWTService:      jwtService,
		Pipeline:        pipeline,
		UserService:     services.NewUserService(db, pipeline),
		DocumentService: services.NewDocumentService(db, pipeline),
	}
	globalApp = app

	logger.Info("Application initialized",
		zap.String("env", cfg.Server.Env),
		zap.String("collection", cfg.Qdrant.Collection))
	return app, nil
}

// Shutdown 关闭应用，释放数据库连接并刷新日志
func Shutdown() {
	if err := database.CloseDB(); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	}
	logger.Sync()
}
