package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fyerfyer/contract-chunker/internal/cache"
	"github.com/fyerfyer/contract-chunker/internal/chunk"
	"github.com/fyerfyer/contract-chunker/internal/models"
	"github.com/fyerfyer/contract-chunker/internal/repository"
	"github.com/fyerfyer/contract-chunker/pkg/storage"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// 默认分块配置
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// ChunkService 分块服务
// 负责协调文档存取、分块、验证和持久化
type ChunkService struct {
	storage       storage.Storage               // 文件存储服务
	repo          repository.DocumentRepository // 文档元数据存储
	statusManager *DocumentStatusManager        // 文档状态管理器
	taskQueue     taskqueue.Queue               // 任务队列
	cache         cache.Cache                   // 结果缓存
	verifier      *chunk.Verifier               // 分块验证工具
	chunkSize     int                           // 默认分块大小
	chunkOverlap  int                           // 默认重叠大小
	asyncEnabled  bool                          // 是否启用异步处理
	timeout       time.Duration                 // 处理超时时间
	logger        *logrus.Logger                // 日志记录器
}

// ChunkOption 分块服务配置选项
type ChunkOption func(*ChunkService)

// NewChunkService 创建一个新的分块服务
func NewChunkService(store storage.Storage, opts ...ChunkOption) *ChunkService {
	srv := &ChunkService{
		storage:      store,
		verifier:     chunk.NewVerifier(),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		timeout:      time.Minute * 5,
		logger:       logrus.New(),
		asyncEnabled: false,
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithChunkSize 设置默认分块大小
func WithChunkSize(size int) ChunkOption {
	return func(s *ChunkService) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithChunkOverlap 设置默认重叠大小
func WithChunkOverlap(overlap int) ChunkOption {
	return func(s *ChunkService) {
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) ChunkOption {
	return func(s *ChunkService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) ChunkOption {
	return func(s *ChunkService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDocumentRepository 设置文档仓储
func WithDocumentRepository(repo repository.DocumentRepository) ChunkOption {
	return func(s *ChunkService) {
		s.repo = repo
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *DocumentStatusManager) ChunkOption {
	return func(s *ChunkService) {
		s.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) ChunkOption {
	return func(s *ChunkService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing 设置是否启用异步处理
func WithAsyncProcessing(enabled bool) ChunkOption {
	return func(s *ChunkService) {
		s.asyncEnabled = enabled
	}
}

// WithCache 设置结果缓存
func WithCache(c cache.Cache) ChunkOption {
	return func(s *ChunkService) {
		s.cache = c
	}
}

// Init 初始化分块服务
// 确保必要的依赖都已设置
func (s *ChunkService) Init() error {
	if s.repo == nil {
		s.repo = repository.NewDocumentRepository()
	}

	if s.statusManager == nil {
		s.statusManager = NewDocumentStatusManager(s.repo, s.logger)
	}

	return nil
}

// UploadDocument 上传文档并创建元数据记录
// 返回文档ID，分块处理由ProcessDocument单独触发
func (s *ChunkService) UploadDocument(ctx context.Context, reader io.Reader, filename string, chunkSize, chunkOverlap int) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = s.chunkOverlap
	}

	// 读取内容以计算校验和，再写入存储
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}

	info, err := s.storage.Save(bytes.NewReader(content), filename)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	if err := s.statusManager.MarkAsUploaded(ctx, info.ID, filename, info.Path, info.Size, chunkSize, chunkOverlap); err != nil {
		// 元数据创建失败时回收已保存的文件
		if delErr := s.storage.Delete(info.ID); delErr != nil {
			s.logger.WithError(delErr).Warn("Failed to clean up stored file after metadata failure")
		}
		return "", fmt.Errorf("failed to create document record: %w", err)
	}

	// 记录文件校验和
	doc, err := s.repo.GetByID(info.ID)
	if err == nil {
		doc.FileChecksum = chunk.HashContent(string(content))
		if err := s.repo.Update(doc); err != nil {
			s.logger.WithError(err).Warn("Failed to record file checksum")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"doc_id":   info.ID,
		"filename": filename,
		"size":     info.Size,
	}).Info("Document uploaded successfully")

	return info.ID, nil
}

// ProcessDocument 处理文档（读取、分块、验证、入库）
func (s *ChunkService) ProcessDocument(ctx context.Context, docID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	if docID == "" {
		return errors.New("docID cannot be empty")
	}

	s.logger.WithField("doc_id", docID).Info("Starting document chunking")

	if s.asyncEnabled && s.taskQueue != nil {
		return s.processDocumentAsync(ctx, docID)
	}

	return s.processDocumentSync(ctx, docID)
}

// ProcessDocumentWithMode 按调用方指定的模式处理文档
// async为true时要求已配置任务队列，忽略服务的默认异步配置
func (s *ChunkService) ProcessDocumentWithMode(ctx context.Context, docID string, async bool) error {
	if err := s.Init(); err != nil {
		return err
	}

	if docID == "" {
		return errors.New("docID cannot be empty")
	}

	if async {
		if s.taskQueue == nil {
			return errors.New("task queue is not configured")
		}
		return s.processDocumentAsync(ctx, docID)
	}

	return s.processDocumentSync(ctx, docID)
}

// AsyncEnabled 返回服务是否默认使用异步处理
func (s *ChunkService) AsyncEnabled() bool {
	return s.asyncEnabled && s.taskQueue != nil
}

// processDocumentAsync 异步处理文档
// 将任务加入队列并立即返回
func (s *ChunkService) processDocumentAsync(ctx context.Context, docID string) error {
	doc, err := s.repo.GetByID(docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := s.statusManager.MarkAsProcessing(ctx, docID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
		// 继续处理，不中断
	}

	payload := taskqueue.ChunkDocumentPayload{
		DocumentID:   docID,
		FilePath:     doc.FilePath,
		FileName:     doc.FileName,
		ChunkSize:    doc.ChunkSize,
		ChunkOverlap: doc.ChunkOverlap,
	}

	taskID, err := s.repo.CreateTask(ctx, taskqueue.TaskChunkDocument, docID, payload)
	if err != nil {
		s.failDocument(ctx, docID, fmt.Sprintf("failed to create chunking task: %v", err))
		return fmt.Errorf("failed to create chunking task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"doc_id":  docID,
		"task_id": taskID,
	}).Info("Document chunking task created successfully")

	return nil
}

// processDocumentSync 同步处理文档
// 直接在当前进程中完成分块
func (s *ChunkService) processDocumentSync(ctx context.Context, docID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.statusManager.MarkAsProcessing(ctx, docID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
		// 继续处理，不中断
	}

	chunks, err := s.chunkDocument(ctx, docID, "")
	if err != nil {
		s.failDocument(ctx, docID, err.Error())
		return err
	}

	if err := s.statusManager.MarkAsCompleted(ctx, docID, len(chunks)); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as completed")
		// 虽然状态更新失败，但分块处理成功，所以不返回错误
	}

	s.logger.WithFields(logrus.Fields{
		"doc_id":      docID,
		"chunk_count": len(chunks),
	}).Info("Document chunking completed successfully")

	return nil
}

// chunkDocument 执行分块流程的核心部分：读取原文、分块、验证、持久化
// taskID用于在异步处理时标记分块来源，同步处理时为空
func (s *ChunkService) chunkDocument(ctx context.Context, docID string, taskID string) ([]chunk.Chunk, error) {
	docRecord, err := s.repo.GetByID(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	content, err := s.storage.ReadText(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document content: %w", err)
	}

	if err := s.statusManager.UpdateStage(ctx, docID, models.StageChunking); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}
	s.updateProgress(ctx, docID, 20)

	// 构建领域文档并执行分块
	doc := chunk.NewDocument(chunk.Document{
		DocID:             docID,
		FileName:          docRecord.FileName,
		FilePath:          docRecord.FilePath,
		FileChecksum:      docRecord.FileChecksum,
		FileExtensionName: docRecord.FileExtension,
		TotalSize:         docRecord.FileSize,
		ChunkSize:         docRecord.ChunkSize,
		ChunkOverlap:      docRecord.ChunkOverlap,
		Content:           content,
	})

	chunker := chunk.NewChunker(docRecord.ChunkSize, docRecord.ChunkOverlap)
	if _, err := chunker.ProcessDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	s.updateProgress(ctx, docID, 60)

	// 持久化前验证分块完整性
	if err := s.statusManager.UpdateStage(ctx, docID, models.StageVerifying); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	report := s.verifier.VerifyChunkIntegrity(doc.Chunks, content)
	if !report.Passed() {
		return nil, fmt.Errorf("chunk integrity verification failed: %v", report.Issues)
	}

	s.updateProgress(ctx, docID, 80)

	// 重复处理时先清理旧分块
	if err := s.repo.DeleteChunks(docID); err != nil {
		s.logger.WithError(err).Warn("Failed to delete existing chunks")
	}

	records := make([]*models.DocumentChunk, len(doc.Chunks))
	for i := range doc.Chunks {
		records[i] = toChunkRecord(&doc.Chunks[i], taskID)
	}

	if err := s.repo.SaveChunks(records); err != nil {
		return nil, fmt.Errorf("failed to save chunks: %w", err)
	}

	s.cacheChunks(docID, docRecord.ChunkSize, docRecord.ChunkOverlap, doc.Chunks)
	s.invalidateReports(docID)

	return doc.Chunks, nil
}

// GetDocumentChunks 获取文档的所有分块
// 优先读取缓存，未命中时从仓储加载
func (s *ChunkService) GetDocumentChunks(ctx context.Context, docID string) ([]chunk.Chunk, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	docRecord, err := s.repo.GetByID(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if s.cache != nil {
		key := cache.DocumentChunksKey(docID, docRecord.ChunkSize, docRecord.ChunkOverlap)
		if cached, found, err := s.cache.Get(key); err == nil && found {
			var chunks []chunk.Chunk
			if err := json.Unmarshal([]byte(cached), &chunks); err == nil {
				return chunks, nil
			}
			// 缓存内容损坏，删除后回源
			s.cache.Delete(key)
		}
	}

	records, err := s.repo.GetChunks(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	chunks := make([]chunk.Chunk, len(records))
	for i, record := range records {
		chunks[i] = fromChunkRecord(record)
	}

	s.cacheChunks(docID, docRecord.ChunkSize, docRecord.ChunkOverlap, chunks)

	return chunks, nil
}

// GetChunkByIndex 获取文档的指定分块
func (s *ChunkService) GetChunkByIndex(ctx context.Context, docID string, index int) (*chunk.Chunk, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetChunkByIndex(docID, index)
	if err != nil {
		return nil, err
	}

	c := fromChunkRecord(record)
	return &c, nil
}

// GetChunkByPosition 获取覆盖指定字符位置的分块
// 位置以核心区间判定，重叠区归属于核心包含它的分块
func (s *ChunkService) GetChunkByPosition(ctx context.Context, docID string, position int) (*chunk.Chunk, error) {
	chunks, err := s.GetDocumentChunks(ctx, docID)
	if err != nil {
		return nil, err
	}

	for i := range chunks {
		pos := chunks[i].Position
		if position >= pos.ContentStart && position < pos.ContentEnd {
			return &chunks[i], nil
		}
	}

	return nil, models.ErrChunkNotFound
}

// VerifyDocument 对文档的持久化分块重新执行完整性验证
func (s *ChunkService) VerifyDocument(ctx context.Context, docID string) (*chunk.IntegrityReport, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, found, err := s.cache.Get(cache.VerificationKey(docID)); err == nil && found {
			var report chunk.IntegrityReport
			if err := json.Unmarshal([]byte(cached), &report); err == nil {
				return &report, nil
			}
		}
	}

	chunks, err := s.GetDocumentChunks(ctx, docID)
	if err != nil {
		return nil, err
	}

	content, err := s.storage.ReadText(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document content: %w", err)
	}

	report := s.verifier.VerifyChunkIntegrity(chunks, content)

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			s.cache.Set(cache.VerificationKey(docID), string(data), 0)
		}
	}

	return report, nil
}

// AnalyzeEfficiency 分析文档分块的重叠效率
func (s *ChunkService) AnalyzeEfficiency(ctx context.Context, docID string) (*chunk.OverlapMetrics, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, found, err := s.cache.Get(cache.EfficiencyKey(docID)); err == nil && found {
			var metrics chunk.OverlapMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	chunks, err := s.GetDocumentChunks(ctx, docID)
	if err != nil {
		return nil, err
	}

	metrics := s.verifier.AnalyzeOverlapEfficiency(chunks)

	if s.cache != nil {
		if data, err := json.Marshal(metrics); err == nil {
			s.cache.Set(cache.EfficiencyKey(docID), string(data), 0)
		}
	}

	return &metrics, nil
}

// ReconstructDocument 从分块重构文档原文
func (s *ChunkService) ReconstructDocument(ctx context.Context, docID string) (string, error) {
	chunks, err := s.GetDocumentChunks(ctx, docID)
	if err != nil {
		return "", err
	}

	return s.verifier.ReconstructContent(chunks), nil
}

// DeleteDocument 删除文档及其相关数据
func (s *ChunkService) DeleteDocument(ctx context.Context, docID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("doc_id", docID).Info("Deleting document")

	doc, err := s.repo.GetByID(docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	// 从存储中删除文件，文件可能已被删除，记录错误但不中断流程
	if err := s.storage.Delete(docID); err != nil {
		s.logger.WithError(err).Warn("Failed to delete file from storage")
	}

	// 清理缓存
	if s.cache != nil {
		s.cache.Delete(cache.DocumentChunksKey(docID, doc.ChunkSize, doc.ChunkOverlap))
		s.invalidateReports(docID)
	}

	// 删除文档记录，仓储内部会级联删除分块和任务
	if err := s.statusManager.DeleteDocument(ctx, docID); err != nil {
		s.logger.WithError(err).Error("Failed to delete document record")
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	s.logger.WithField("doc_id", docID).Info("Document deleted successfully")
	return nil
}

// GetDocumentInfo 获取文档信息
func (s *ChunkService) GetDocumentInfo(ctx context.Context, docID string) (map[string]interface{}, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	doc, err := s.statusManager.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	info := map[string]interface{}{
		"doc_id":        doc.ID,
		"filename":      doc.FileName,
		"status":        doc.Status,
		"chunk_size":    doc.ChunkSize,
		"chunk_overlap": doc.ChunkOverlap,
		"chunk_count":   doc.ChunkCount,
		"created_at":    doc.UploadedAt.Format(time.RFC3339),
		"updated_at":    doc.UpdatedAt.Format(time.RFC3339),
		"size":          doc.FileSize,
		"progress":      doc.Progress,
	}

	if doc.Error != "" {
		info["error"] = doc.Error
	}

	if doc.ProcessedAt != nil {
		info["processed_at"] = doc.ProcessedAt.Format(time.RFC3339)
	}

	if doc.Tags != "" {
		info["tags"] = doc.Tags
	}

	if doc.CurrentStage != "" {
		info["stage"] = doc.CurrentStage
	}

	// 如果启用了异步处理，尝试获取最近的任务信息
	if s.asyncEnabled && s.taskQueue != nil {
		tasks, err := s.repo.GetDocumentTasks(ctx, docID)
		if err == nil && len(tasks) > 0 {
			latestTask := tasks[0]
			for _, task := range tasks {
				if task.UpdatedAt.After(latestTask.UpdatedAt) {
					latestTask = task
				}
			}

			info["task_id"] = latestTask.ID
			info["task_status"] = latestTask.Status
			if latestTask.Error != "" {
				info["task_error"] = latestTask.Error
			}
		}
	}

	return info, nil
}

// GetDocumentStatus 获取文档处理状态
func (s *ChunkService) GetDocumentStatus(ctx context.Context, docID string) (models.DocumentStatus, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	return s.statusManager.GetStatus(ctx, docID)
}

// ListDocuments 获取文档列表
func (s *ChunkService) ListDocuments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	return s.statusManager.ListDocuments(ctx, offset, limit, filters)
}

// UpdateDocumentTags 更新文档标签
func (s *ChunkService) UpdateDocumentTags(ctx context.Context, docID string, tags string) error {
	if err := s.Init(); err != nil {
		return err
	}

	doc, err := s.statusManager.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	doc.Tags = tags
	return s.repo.Update(doc)
}

// GetDocumentTasks 获取文档相关的任务
func (s *ChunkService) GetDocumentTasks(ctx context.Context, docID string) ([]*taskqueue.Task, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, errors.New("async processing not enabled")
	}

	return s.repo.GetDocumentTasks(ctx, docID)
}

// WaitForDocumentProcessing 等待文档分块完成
func (s *ChunkService) WaitForDocumentProcessing(ctx context.Context, docID string, timeout time.Duration) error {
	if err := s.Init(); err != nil {
		return err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		// 未启用异步处理时直接检查文档状态
		status, err := s.statusManager.GetStatus(ctx, docID)
		if err != nil {
			return err
		}
		if status == models.DocStatusFailed {
			return errors.New("document chunking failed")
		}
		if status != models.DocStatusCompleted {
			return errors.New("document not processed")
		}
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tasks, err := s.repo.GetDocumentTasks(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document tasks: %w", err)
	}

	var latestTask *taskqueue.Task
	for _, task := range tasks {
		if task.Type == taskqueue.TaskChunkDocument {
			if latestTask == nil || task.CreatedAt.After(latestTask.CreatedAt) {
				latestTask = task
			}
		}
	}

	if latestTask == nil {
		return fmt.Errorf("no chunking task found for document %s", docID)
	}

	if _, err := s.taskQueue.WaitForTask(ctx, latestTask.ID, timeout); err != nil {
		return fmt.Errorf("failed to wait for document chunking: %w", err)
	}

	status, err := s.statusManager.GetStatus(ctx, docID)
	if err != nil {
		return err
	}

	if status == models.DocStatusFailed {
		return errors.New("document chunking failed")
	}

	if status != models.DocStatusCompleted {
		return errors.New("document chunking incomplete")
	}

	return nil
}

// CountDocumentChunks 统计文档分块数量
func (s *ChunkService) CountDocumentChunks(ctx context.Context, docID string) (int, error) {
	if err := s.Init(); err != nil {
		return 0, err
	}

	return s.repo.CountChunks(docID)
}

// GetStatusManager 返回文档状态管理器实例
func (s *ChunkService) GetStatusManager() *DocumentStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *ChunkService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}

// failDocument 将文档标记为失败状态
func (s *ChunkService) failDocument(ctx context.Context, docID string, errorMsg string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark document as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, docID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"doc_id": docID,
			"error":  err,
		}).Error("Failed to mark document as failed")
	}
}

// updateProgress 更新进度，失败只记录日志
func (s *ChunkService) updateProgress(ctx context.Context, docID string, progress int) {
	if err := s.statusManager.UpdateProgress(ctx, docID, progress); err != nil {
		s.logger.WithError(err).Warn("Failed to update document progress")
	}
}

// cacheChunks 将分块结果写入缓存
func (s *ChunkService) cacheChunks(docID string, chunkSize, chunkOverlap int, chunks []chunk.Chunk) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(chunks)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal chunks for caching")
		return
	}

	key := cache.DocumentChunksKey(docID, chunkSize, chunkOverlap)
	if err := s.cache.Set(key, string(data), 0); err != nil {
		s.logger.WithError(err).Warn("Failed to cache chunks")
	}
}

// invalidateReports 清理验证报告和效率指标缓存
func (s *ChunkService) invalidateReports(docID string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(cache.VerificationKey(docID))
	s.cache.Delete(cache.EfficiencyKey(docID))
}

// toChunkRecord 将领域分块转换为数据库记录
func toChunkRecord(c *chunk.Chunk, taskID string) *models.DocumentChunk {
	var metadata datatypes.JSON
	if len(c.Metadata) > 0 {
		if data, err := json.Marshal(c.Metadata); err == nil {
			metadata = data
		}
	}

	return &models.DocumentChunk{
		DocumentID:      c.DocID,
		ChunkID:         c.ChunkID,
		ChunkIndex:      c.ChunkIndex,
		Content:         c.Content,
		CharStart:       c.Position.CharStart,
		CharEnd:         c.Position.CharEnd,
		LineStart:       c.Position.LineStart,
		LineEnd:         c.Position.LineEnd,
		OverlapStart:    c.Position.OverlapStart,
		OverlapEnd:      c.Position.OverlapEnd,
		ContentStart:    c.Position.ContentStart,
		ContentEnd:      c.Position.ContentEnd,
		TargetChunkSize: c.TargetChunkSize,
		ActualChunkSize: c.ActualChunkSize,
		ContentHash:     c.ContentHash,
		TokensCount:     c.TokensCount,
		CreatedAt:       c.CreatedAt,
		Metadata:        metadata,
		TaskID:          taskID,
	}
}

// fromChunkRecord 从数据库记录还原领域分块
func fromChunkRecord(record *models.DocumentChunk) chunk.Chunk {
	var metadata map[string]interface{}
	if len(record.Metadata) > 0 {
		_ = json.Unmarshal(record.Metadata, &metadata)
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return chunk.Chunk{
		ChunkID:    record.ChunkID,
		ChunkIndex: record.ChunkIndex,
		Content:    record.Content,
		DocID:      record.DocumentID,
		Position: chunk.Position{
			CharStart:    record.CharStart,
			CharEnd:      record.CharEnd,
			LineStart:    record.LineStart,
			LineEnd:      record.LineEnd,
			OverlapStart: record.OverlapStart,
			OverlapEnd:   record.OverlapEnd,
			ContentStart: record.ContentStart,
			ContentEnd:   record.ContentEnd,
		},
		TargetChunkSize: record.TargetChunkSize,
		ActualChunkSize: record.ActualChunkSize,
		ContentHash:     record.ContentHash,
		TokensCount:     record.TokensCount,
		CreatedAt:       record.CreatedAt,
		Metadata:        metadata,
	}
}
