package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fyerfyer/contract-chunker/api/middleware"
	"github.com/fyerfyer/contract-chunker/api/model"
	"github.com/fyerfyer/contract-chunker/internal/models"
	"github.com/fyerfyer/contract-chunker/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DocumentHandler 处理文档相关的API请求
type DocumentHandler struct {
	chunkService *services.ChunkService // 分块服务
	logger       *logrus.Logger         // 日志记录器
}

// NewDocumentHandler 创建新的文档处理器
func NewDocumentHandler(chunkService *services.ChunkService) *DocumentHandler {
	return &DocumentHandler{
		chunkService: chunkService,
		logger:       middleware.GetLogger(),
	}
}

// UploadDocument 处理文档上传请求
// POST /api/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid document upload request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	if req.File == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"未提供文件",
		))
		return
	}

	// 检查文件类型
	filename := req.File.Filename
	ext := filepath.Ext(filename)
	if !isValidFileType(ext) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，仅支持 .txt, .md, .markdown, .json, .csv",
		))
		return
	}

	// 检查分块参数：重叠必须小于分块大小
	overlap := -1
	if req.ChunkOverlap != nil {
		overlap = *req.ChunkOverlap
	}
	if req.ChunkSize > 0 && overlap >= req.ChunkSize {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"分块重叠必须小于分块大小",
		))
		return
	}

	// 打开上传的文件
	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	// 保存文件并创建文档记录
	docID, err := h.chunkService.UploadDocument(c.Request.Context(), file, filename, req.ChunkSize, overlap)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to save uploaded document")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"保存文件失败",
		))
		return
	}

	// 记录标签
	if req.Tags != "" {
		if err := h.chunkService.UpdateDocumentTags(c.Request.Context(), docID, req.Tags); err != nil {
			h.logger.WithError(err).WithField("doc_id", docID).Warn("Failed to set document tags")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"doc_id":   docID,
		"filename": filename,
	}).Info("File uploaded successfully")

	// 读取实际生效的分块配置
	chunkSize := req.ChunkSize
	chunkOverlap := overlap
	if info, err := h.chunkService.GetDocumentInfo(c.Request.Context(), docID); err == nil {
		if v, ok := info["chunk_size"].(int); ok {
			chunkSize = v
		}
		if v, ok := info["chunk_overlap"].(int); ok {
			chunkOverlap = v
		}
	}

	resp := model.DocumentUploadResponse{
		DocID:        docID,
		FileName:     filename,
		Status:       string(models.DocStatusUploaded),
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetDocument 获取文档信息
// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	docInfo, err := h.chunkService.GetDocumentInfo(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to get document info")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取文档信息失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(docInfo))
}

// GetDocumentStatus 获取文档处理状态
// GET /api/documents/:id/status
func (h *DocumentHandler) GetDocumentStatus(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	doc, err := h.chunkService.GetStatusManager().GetDocument(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to get document status")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取文档状态失败",
		))
		return
	}

	resp := model.DocumentStatusResponse{
		DocID:      doc.ID,
		Status:     string(doc.Status),
		FileName:   doc.FileName,
		Progress:   doc.Progress,
		Stage:      string(doc.CurrentStage),
		Error:      doc.Error,
		ChunkCount: doc.ChunkCount,
		UploadedAt: doc.UploadedAt.Format(time.RFC3339),
		UpdatedAt:  doc.UpdatedAt.Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListDocuments 获取文档列表
// GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req model.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 构建过滤条件
	filters := make(map[string]interface{})

	if req.Status != "" {
		filters["status"] = req.Status
	}

	if req.FileName != "" {
		filters["file_name"] = req.FileName
	}

	if req.StartTime != nil {
		filters["start_time"] = *req.StartTime
	}

	if req.EndTime != nil {
		filters["end_time"] = *req.EndTime
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	offset := (page - 1) * pageSize

	docs, total, err := h.chunkService.ListDocuments(c.Request.Context(), offset, pageSize, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list documents")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取文档列表失败",
		))
		return
	}

	docInfos := make([]model.DocumentInfo, len(docs))
	for i, doc := range docs {
		docInfos[i] = model.NewDocumentInfo(doc)
	}

	resp := model.DocumentListResponse{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Documents: docInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteDocument 删除文档
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	err := h.chunkService.DeleteDocument(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": req.ID,
		}).Error("Failed to delete document")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除文档失败",
		))
		return
	}

	h.logger.WithField("doc_id", req.ID).Info("Document deleted successfully")

	resp := model.DocumentDeleteResponse{
		Success: true,
		DocID:   req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// UpdateDocumentTags 更新文档标签
// PUT /api/documents/:id/tags
func (h *DocumentHandler) UpdateDocumentTags(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文档ID"))
		return
	}

	var req model.DocumentTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}

	if err := h.chunkService.UpdateDocumentTags(c.Request.Context(), uri.ID, req.Tags); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到文档"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"doc_id": uri.ID,
		}).Error("Failed to update document tags")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"更新文档标签失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(map[string]interface{}{
		"doc_id": uri.ID,
		"tags":   req.Tags,
	}))
}

// isValidFileType 检查文件类型是否有效
func isValidFileType(ext string) bool {
	validTypes := map[string]bool{
		".txt":      true,
		".md":       true,
		".markdown": true,
		".json":     true,
		".csv":      true,
	}
	return validTypes[ext]
}
