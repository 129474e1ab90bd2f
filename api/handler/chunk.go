package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fyerfyer/contract-chunker/api/middleware"
	"github.com/fyerfyer/contract-chunker/api/model"
	"github.com/fyerfyer/contract-chunker/internal/models"
	"github.com/fyerfyer/contract-chunker/internal/services"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChunkHandler 处理分块相关的API请求
type ChunkHandler struct {
	chunkService *services.ChunkService // 分块服务
	logger       *logrus.Logger         // 日志记录器
}

// NewChunkHandler 创建新的分块处理器
func NewChunkHandler(chunkService *services.ChunkService) *ChunkHandler {
	return &ChunkHandler{
		chunkService: chunkService,
		logger:       middleware.GetLogger(),
	}
}

// ProcessDocument 触发文档分块处理
// POST /api/documents/:id/chunks
func (h *ChunkHandler) ProcessDocument(c *gin.Context) {
	var req model.ChunkProcessRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 未指定时跟随服务默认配置
	async := h.chunkService.AsyncEnabled()
	if req.Async != nil {
		async = *req.Async
	}

	err := h.chunkService.ProcessDocumentWithMode(c.Request.Context(), req.ID, async)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
			"async":  async,
		}).Error("Failed to process document")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"文档分块处理失败: "+err.Error(),
		))
		return
	}

	// 异步模式下可选等待任务完成
	if async && req.Wait {
		if err := h.chunkService.WaitForDocumentProcessing(c.Request.Context(), req.ID, 2*time.Minute); err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":  err.Error(),
				"doc_id": req.ID,
			}).Warn("Waiting for document processing failed")
		}
	}

	status, err := h.chunkService.GetDocumentStatus(c.Request.Context(), req.ID)
	if err != nil {
		status = models.DocStatusProcessing
	}

	resp := model.ChunkProcessResponse{
		DocID:  req.ID,
		Status: string(status),
		Async:  async,
	}

	// 异步模式下返回最新的分块任务ID
	if async {
		if tasks, err := h.chunkService.GetDocumentTasks(c.Request.Context(), req.ID); err == nil {
			for _, task := range tasks {
				if task.Type == taskqueue.TaskChunkDocument {
					resp.TaskID = task.ID
					break
				}
			}
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListChunks 获取文档的分块列表
// GET /api/documents/:id/chunks
// 带position参数时定位包含该字符偏移的单个分块
func (h *ChunkHandler) ListChunks(c *gin.Context) {
	var req model.ChunkListRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 按字符偏移定位分块
	if req.Position != nil {
		chunkResult, err := h.chunkService.GetChunkByPosition(c.Request.Context(), req.ID, *req.Position)
		if err != nil {
			if errors.Is(err, models.ErrChunkNotFound) {
				c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "该位置没有对应的分块"))
				return
			}
			if errors.Is(err, models.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
				return
			}

			h.logger.WithFields(logrus.Fields{
				"error":    err.Error(),
				"doc_id":   req.ID,
				"position": *req.Position,
			}).Error("Failed to locate chunk by position")

			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"定位分块失败",
			))
			return
		}

		c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewChunkInfo(chunkResult)))
		return
	}

	chunks, err := h.chunkService.GetDocumentChunks(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to get document chunks")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分块列表失败",
		))
		return
	}

	chunkInfos := make([]model.ChunkInfo, len(chunks))
	for i := range chunks {
		chunkInfos[i] = model.NewChunkInfo(&chunks[i])
	}

	resp := model.ChunkListResponse{
		DocID:  req.ID,
		Total:  len(chunkInfos),
		Chunks: chunkInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetChunk 获取指定序号的分块
// GET /api/documents/:id/chunks/:index
func (h *ChunkHandler) GetChunk(c *gin.Context) {
	var req model.ChunkIndexRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}

	chunkResult, err := h.chunkService.GetChunkByIndex(c.Request.Context(), req.ID, req.Index)
	if err != nil {
		if errors.Is(err, models.ErrChunkNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "分块不存在"))
			return
		}
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
			"index":  req.Index,
		}).Error("Failed to get chunk")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分块失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewChunkInfo(chunkResult)))
}

// VerifyDocument 验证文档分块完整性
// POST /api/documents/:id/verify
func (h *ChunkHandler) VerifyDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	report, err := h.chunkService.VerifyDocument(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to verify document chunks")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"验证分块完整性失败: "+err.Error(),
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewVerifyResponse(req.ID, report)))
}

// AnalyzeEfficiency 分析分块重叠效率
// GET /api/documents/:id/efficiency
func (h *ChunkHandler) AnalyzeEfficiency(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	metrics, err := h.chunkService.AnalyzeEfficiency(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to analyze overlap efficiency")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"分析重叠效率失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewEfficiencyResponse(req.ID, metrics)))
}

// ReconstructDocument 从分块重构文档原文
// GET /api/documents/:id/reconstruct
func (h *ChunkHandler) ReconstructDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	content, err := h.chunkService.ReconstructDocument(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to reconstruct document content")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"重构文档内容失败",
		))
		return
	}

	resp := model.ReconstructResponse{
		DocID:   req.ID,
		Content: content,
		Length:  len([]rune(content)),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
