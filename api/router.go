package api

import (
	"github.com/fyerfyer/contract-chunker/api/handler"
	"github.com/fyerfyer/contract-chunker/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	docHandler *handler.DocumentHandler,
	chunkHandler *handler.ChunkHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())
	router.Use(Cors())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 创建API分组
	api := router.Group("/api")
	{
		// 文档管理API
		docGroup := api.Group("/documents")
		{
			// 上传文档 - POST /api/documents
			docGroup.POST("", docHandler.UploadDocument)

			// 获取文档列表 - GET /api/documents
			docGroup.GET("", docHandler.ListDocuments)

			// 获取文档信息 - GET /api/documents/:id
			docGroup.GET("/:id", docHandler.GetDocument)

			// 获取文档状态 - GET /api/documents/:id/status
			docGroup.GET("/:id/status", docHandler.GetDocumentStatus)

			// 删除文档 - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.DeleteDocument)

			// 更新文档标签 - PUT /api/documents/:id/tags
			docGroup.PUT("/:id/tags", docHandler.UpdateDocumentTags)

			// 触发分块处理 - POST /api/documents/:id/chunks
			docGroup.POST("/:id/chunks", chunkHandler.ProcessDocument)

			// 获取分块列表 - GET /api/documents/:id/chunks
			docGroup.GET("/:id/chunks", chunkHandler.ListChunks)

			// 获取单个分块 - GET /api/documents/:id/chunks/:index
			docGroup.GET("/:id/chunks/:index", chunkHandler.GetChunk)

			// 验证分块完整性 - POST /api/documents/:id/verify
			docGroup.POST("/:id/verify", chunkHandler.VerifyDocument)

			// 分析重叠效率 - GET /api/documents/:id/efficiency
			docGroup.GET("/:id/efficiency", chunkHandler.AnalyzeEfficiency)

			// 重构文档内容 - GET /api/documents/:id/reconstruct
			docGroup.GET("/:id/reconstruct", chunkHandler.ReconstructDocument)

			// 获取文档任务列表 - GET /api/documents/:id/tasks
			docGroup.GET("/:id/tasks", taskHandler.GetDocumentTasks)
		}

		// 任务状态API
		taskGroup := api.Group("/tasks")
		{
			// 获取任务状态 - GET /api/tasks/:id
			taskGroup.GET("/:id", taskHandler.GetTaskStatus)
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
