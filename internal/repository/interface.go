package repository

import (
	"context"

	"github.com/fyerfyer/contract-chunker/internal/models"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
)

// DocumentRepository 文档仓储接口
// 负责文档元数据和分块记录的持久化
type DocumentRepository interface {
	// Create 创建文档记录
	Create(doc *models.Document) error

	// Update 更新文档记录
	Update(doc *models.Document) error

	// GetByID 根据ID获取文档
	GetByID(id string) (*models.Document, error)

	// List 列出文档，支持分页和筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error)

	// Delete 删除文档及其分块
	Delete(id string) error

	// UpdateStatus 更新文档状态
	UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error

	// UpdateProgress 更新文档处理进度
	UpdateProgress(id string, progress int) error

	// SaveChunk 保存单个分块记录
	SaveChunk(c *models.DocumentChunk) error

	// SaveChunks 批量保存分块记录
	SaveChunks(chunks []*models.DocumentChunk) error

	// GetChunks 获取文档的所有分块，按序号升序
	GetChunks(docID string) ([]*models.DocumentChunk, error)

	// GetChunkByIndex 获取文档的指定分块
	GetChunkByIndex(docID string, index int) (*models.DocumentChunk, error)

	// CountChunks 统计文档的分块数量
	CountChunks(docID string) (int, error)

	// DeleteChunks 删除文档的所有分块
	DeleteChunks(docID string) error

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) DocumentRepository

	// CreateTask 创建任务并关联到文档
	CreateTask(ctx context.Context, taskType taskqueue.TaskType, documentID string, payload interface{}) (string, error)

	// GetDocumentTasks 获取文档相关的所有任务
	GetDocumentTasks(ctx context.Context, documentID string) ([]*taskqueue.Task, error)

	// GetTaskByID 根据ID获取任务
	GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error)

	// DeleteTask 删除任务
	DeleteTask(ctx context.Context, taskID string) error
}
