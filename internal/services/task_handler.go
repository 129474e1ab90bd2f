package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// ChunkTaskHandler 分块任务处理器
// 实现taskqueue.Handler接口，在工作者进程中执行分块和验证任务
type ChunkTaskHandler struct {
	service *ChunkService
	queue   taskqueue.Queue
	logger  *logrus.Logger
}

// NewChunkTaskHandler 创建分块任务处理器
func NewChunkTaskHandler(service *ChunkService, queue taskqueue.Queue, logger *logrus.Logger) *ChunkTaskHandler {
	if logger == nil {
		logger = logrus.New()
	}

	return &ChunkTaskHandler{
		service: service,
		queue:   queue,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *ChunkTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{
		taskqueue.TaskChunkDocument,
		taskqueue.TaskVerifyChunks,
	}
}

// ProcessTask 处理任务
func (h *ChunkTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
	}).Info("Processing task")

	switch task.Type {
	case taskqueue.TaskChunkDocument:
		return h.handleChunkDocument(ctx, task)
	case taskqueue.TaskVerifyChunks:
		return h.handleVerifyChunks(ctx, task)
	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

// handleChunkDocument 执行文档分块任务
func (h *ChunkTaskHandler) handleChunkDocument(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ChunkDocumentPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal chunk payload: %w", err)
	}

	docID := payload.DocumentID
	if docID == "" {
		docID = task.DocumentID
	}

	chunks, err := h.service.chunkDocument(ctx, docID, task.ID)
	if err != nil {
		h.service.failDocument(ctx, docID, err.Error())
		return err
	}

	if err := h.service.statusManager.MarkAsCompleted(ctx, docID, len(chunks)); err != nil {
		h.logger.WithError(err).Error("Failed to mark document as completed")
	}

	totalSize := 0
	for i := range chunks {
		totalSize += utf8.RuneCountInString(chunks[i].ContentWithoutOverlap())
	}

	result := taskqueue.ChunkDocumentResult{
		DocumentID: docID,
		ChunkCount: len(chunks),
		TotalSize:  totalSize,
	}

	if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, ""); err != nil {
		h.logger.WithError(err).Warn("Failed to record task result")
	}

	return nil
}

// handleVerifyChunks 执行分块校验任务
func (h *ChunkTaskHandler) handleVerifyChunks(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.VerifyChunksPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal verify payload: %w", err)
	}

	docID := payload.DocumentID
	if docID == "" {
		docID = task.DocumentID
	}

	report, err := h.service.VerifyDocument(ctx, docID)
	if err != nil {
		return err
	}

	result := taskqueue.VerifyChunksResult{
		DocumentID:       docID,
		CoverageComplete: report.CoverageComplete,
		OverlapsCorrect:  report.OverlapsCorrect,
		ContentMatches:   report.ContentMatches,
		Issues:           report.Issues,
	}

	if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, ""); err != nil {
		h.logger.WithError(err).Warn("Failed to record task result")
	}

	// 验证不通过时任务本身仍算成功，问题记录在结果中
	return nil
}

// RegisterHandlers 将分块任务处理器注册到工作者
func RegisterHandlers(worker taskqueue.Worker, handler *ChunkTaskHandler) {
	for _, taskType := range handler.GetTaskTypes() {
		worker.RegisterHandler(taskType, handler)
	}
}
