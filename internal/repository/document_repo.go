package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/contract-chunker/internal/database"
	"github.com/fyerfyer/contract-chunker/internal/models"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"gorm.io/gorm"
)

// docRepository 文档仓储实现
type docRepository struct {
	db        *gorm.DB        // 数据库连接
	taskQueue taskqueue.Queue // 任务队列
	ctx       context.Context // 上下文
}

// NewDocumentRepository 创建文档仓储实例
func NewDocumentRepository() DocumentRepository {
	return &docRepository{
		db:  database.MustDB(),
		ctx: context.Background(),
	}
}

// NewDocumentRepositoryWithDB 使用指定的数据库连接创建文档仓储实例
func NewDocumentRepositoryWithDB(db *gorm.DB) DocumentRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &docRepository{
		db:  db,
		ctx: context.Background(),
	}
}

// NewDocumentRepositoryWithQueue 使用指定的数据库连接和任务队列创建文档仓储实例
func NewDocumentRepositoryWithQueue(db *gorm.DB, queue taskqueue.Queue) DocumentRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &docRepository{
		db:        db,
		taskQueue: queue,
		ctx:       context.Background(),
	}
}

// Create 创建文档记录
func (r *docRepository) Create(doc *models.Document) error {
	if doc.ID == "" {
		return errors.New("document ID cannot be empty")
	}

	return r.db.Create(doc).Error
}

// Update 更新文档记录
func (r *docRepository) Update(doc *models.Document) error {
	if doc.ID == "" {
		return errors.New("document ID cannot be empty")
	}

	return r.db.Save(doc).Error
}

// GetByID 根据ID获取文档
func (r *docRepository) GetByID(id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

// List 列出文档列表，支持分页和筛选
func (r *docRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	var docs []*models.Document
	var total int64

	query := r.db.Model(&models.Document{})

	if filters != nil {
		// 状态过滤
		if status, ok := filters["status"]; ok {
			switch s := status.(type) {
			case models.DocumentStatus:
				query = query.Where("status = ?", string(s))
			case string:
				if s != "" {
					query = query.Where("status = ?", s)
				}
			}
		}

		// 标签过滤
		if tags, ok := filters["tags"].(string); ok && tags != "" {
			query = query.Where("tags LIKE ?", "%"+tags+"%")
		}

		// 文件名过滤
		if fileName, ok := filters["file_name"].(string); ok && fileName != "" {
			query = query.Where("file_name LIKE ?", "%"+fileName+"%")
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(string); ok && startTime != "" {
			query = query.Where("uploaded_at >= ?", startTime)
		}
		if endTime, ok := filters["end_time"].(string); ok && endTime != "" {
			query = query.Where("uploaded_at <= ?", endTime)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error

	if err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// Delete 删除文档记录及其分块
func (r *docRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除文档分块
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentChunk{}).Error; err != nil {
			return err
		}

		// 2. 删除文档记录
		if err := tx.Where("id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}

		// 3. 如果任务队列已初始化，尝试删除相关任务
		if r.taskQueue != nil {
			ctx := r.getContext()
			tasks, err := r.taskQueue.GetTasksByDocument(ctx, id)
			if err == nil && len(tasks) > 0 {
				for _, task := range tasks {
					// 任务可能已经被删除，忽略错误
					_ = r.taskQueue.DeleteTask(ctx, task.ID)
				}
			}
		}

		return nil
	})
}

// UpdateStatus 更新文档状态
func (r *docRepository) UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 终态时记录处理完成时间
	if status == models.DocStatusCompleted || status == models.DocStatusFailed {
		now := time.Now()
		updates["processed_at"] = &now
	}

	return r.db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateProgress 更新文档处理进度
func (r *docRepository) UpdateProgress(id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return r.db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

// SaveChunk 保存分块记录
func (r *docRepository) SaveChunk(c *models.DocumentChunk) error {
	return r.db.Create(c).Error
}

// SaveChunks 批量保存分块记录
func (r *docRepository) SaveChunks(chunks []*models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(chunks, 100).Error
	})
}

// GetChunks 获取文档的所有分块
func (r *docRepository) GetChunks(docID string) ([]*models.DocumentChunk, error) {
	var chunks []*models.DocumentChunk
	err := r.db.Where("document_id = ?", docID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

// GetChunkByIndex 获取文档的指定分块
func (r *docRepository) GetChunkByIndex(docID string, index int) (*models.DocumentChunk, error) {
	var c models.DocumentChunk
	err := r.db.Where("document_id = ? AND chunk_index = ?", docID, index).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s[%d]", models.ErrChunkNotFound, docID, index)
		}
		return nil, err
	}
	return &c, nil
}

// CountChunks 统计文档的分块数量
func (r *docRepository) CountChunks(docID string) (int, error) {
	var count int64
	err := r.db.Model(&models.DocumentChunk{}).
		Where("document_id = ?", docID).
		Count(&count).Error
	return int(count), err
}

// DeleteChunks 删除文档的所有分块
func (r *docRepository) DeleteChunks(docID string) error {
	return r.db.Where("document_id = ?", docID).
		Delete(&models.DocumentChunk{}).Error
}

// WithContext 创建带有上下文的仓储
func (r *docRepository) WithContext(ctx context.Context) DocumentRepository {
	return &docRepository{
		db:        r.db.WithContext(ctx),
		taskQueue: r.taskQueue,
		ctx:       ctx,
	}
}

// getContext 获取仓储的上下文
func (r *docRepository) getContext() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// CreateTask 创建任务并关联到文档
func (r *docRepository) CreateTask(ctx context.Context, taskType taskqueue.TaskType, documentID string, payload interface{}) (string, error) {
	if r.taskQueue == nil {
		return "", errors.New("task queue not initialized")
	}

	// 检查文档是否存在
	if _, err := r.GetByID(documentID); err != nil {
		return "", err
	}

	taskID, err := r.taskQueue.Enqueue(ctx, taskType, documentID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	// 任务已创建，状态更新失败不影响任务本身
	if err := r.UpdateStatus(documentID, models.DocStatusProcessing, ""); err != nil {
		return taskID, nil
	}

	return taskID, nil
}

// GetDocumentTasks 获取文档相关的所有任务
func (r *docRepository) GetDocumentTasks(ctx context.Context, documentID string) ([]*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTasksByDocument(ctx, documentID)
}

// GetTaskByID 根据ID获取任务
func (r *docRepository) GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTask(ctx, taskID)
}

// DeleteTask 删除任务
func (r *docRepository) DeleteTask(ctx context.Context, taskID string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	return r.taskQueue.DeleteTask(ctx, taskID)
}
