package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fyerfyer/contract-chunker/api"
	"github.com/fyerfyer/contract-chunker/api/handler"
	"github.com/fyerfyer/contract-chunker/api/middleware"
	appconfig "github.com/fyerfyer/contract-chunker/config"
	"github.com/fyerfyer/contract-chunker/internal/cache"
	"github.com/fyerfyer/contract-chunker/internal/database"
	"github.com/fyerfyer/contract-chunker/internal/repository"
	"github.com/fyerfyer/contract-chunker/internal/services"
	"github.com/fyerfyer/contract-chunker/pkg/storage"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// 解析命令行参数
	var (
		configFile = flag.String("config", "", "Path to config file")
		mode       = flag.String("mode", "release", "Run mode (debug/release)")
	)
	flag.Parse()

	// 加载配置
	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(*mode)

	// 初始化日志
	logger := setupLogger(cfg.Log)
	logger.Info("Starting contract chunker service...")

	// 初始化数据库
	if err := setupDatabase(cfg.Database, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 创建文件存储服务
	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建缓存服务
	cacheService, err := setupCache(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 初始化任务队列（如果启用）
	var queue taskqueue.Queue
	if cfg.Queue.Enable {
		queue, err = setupTaskQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Task queue initialized successfully")
	}

	// 初始化仓储，启用队列时使用带队列的仓储
	var repo repository.DocumentRepository
	if queue != nil {
		repo = repository.NewDocumentRepositoryWithQueue(database.MustDB(), queue)
		logger.Info("Using document repository with task queue")
	} else {
		repo = repository.NewDocumentRepository()
	}

	statusManager := services.NewDocumentStatusManager(repo, logger)

	// 创建分块服务
	serviceOptions := []services.ChunkOption{
		services.WithChunkSize(cfg.Chunker.ChunkSize),
		services.WithChunkOverlap(cfg.Chunker.ChunkOverlap),
		services.WithTimeout(time.Duration(cfg.Chunker.TimeoutSec) * time.Second),
		services.WithLogger(logger),
		services.WithDocumentRepository(repo),
		services.WithStatusManager(statusManager),
	}

	if cfg.Cache.Enable {
		serviceOptions = append(serviceOptions, services.WithCache(cacheService))
	}

	if queue != nil {
		serviceOptions = append(serviceOptions,
			services.WithTaskQueue(queue),
			services.WithAsyncProcessing(true),
		)
		logger.Info("Document chunking will use async task queue")
	}

	chunkService := services.NewChunkService(fileStorage, serviceOptions...)
	if err := chunkService.Init(); err != nil {
		logger.Fatalf("Failed to initialize chunk service: %v", err)
	}

	// 启动任务工作者（如果启用了队列）
	var worker taskqueue.Worker
	if queue != nil {
		worker, err = setupWorker(queue, cfg.Queue, chunkService, logger)
		if err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
	}

	// 初始化API处理器
	docHandler := handler.NewDocumentHandler(chunkService)
	chunkHandler := handler.NewChunkHandler(chunkService)
	taskHandler := handler.NewTaskHandler(queue)

	// 设置路由
	r := api.SetupRouter(docHandler, chunkHandler, taskHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 设置日志系统
// 配置了日志文件时使用lumberjack进行滚动切割
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupDatabase 设置数据库
func setupDatabase(cfg appconfig.DatabaseConfig, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Type
	dbConfig.DSN = cfg.DSN

	return database.Setup(dbConfig, logger)
}

// setupStorage 设置文件存储服务
func setupStorage(cfg appconfig.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		// 确保存储目录存在
		if err := os.MkdirAll(filepath.Clean(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %v", err)
		}

		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Path,
		})
	}
}

// setupCache 设置缓存服务
func setupCache(cfg appconfig.CacheConfig) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.Type,
		DefaultTTL:      time.Duration(cfg.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}

	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg appconfig.QueueConfig, logger *logrus.Logger) (taskqueue.Queue, error) {
	queueConfig := taskqueue.DefaultConfig()
	queueConfig.RedisAddr = cfg.RedisAddr
	queueConfig.RedisPassword = cfg.RedisPassword
	queueConfig.RedisDB = cfg.RedisDB
	queueConfig.Concurrency = cfg.Concurrency
	queueConfig.RetryLimit = cfg.RetryLimit
	queueConfig.RetryDelay = time.Duration(cfg.RetryDelay) * time.Second

	logger.WithFields(logrus.Fields{
		"type":        cfg.Type,
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.Concurrency,
		"retry_limit": cfg.RetryLimit,
	}).Info("Setting up task queue")

	return taskqueue.NewQueue(cfg.Type, queueConfig)
}

// setupWorker 启动任务工作者并注册分块任务处理器
func setupWorker(queue taskqueue.Queue, cfg appconfig.QueueConfig, chunkService *services.ChunkService, logger *logrus.Logger) (taskqueue.Worker, error) {
	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		return nil, fmt.Errorf("task worker requires a redis queue, got %T", queue)
	}

	worker := taskqueue.NewRedisWorker(redisQueue, nil)

	taskHandler := services.NewChunkTaskHandler(chunkService, queue, logger)
	services.RegisterHandlers(worker, taskHandler)

	if err := worker.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker: %v", err)
	}

	logger.Info("Task worker started successfully")
	return worker, nil
}
