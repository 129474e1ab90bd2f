package taskqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskType 任务类型
type TaskType string

const (
	TaskChunkDocument TaskType = "chunk_document" // 文档分块任务
	TaskVerifyChunks  TaskType = "verify_chunks"  // 分块校验任务
)

// TaskStatus 任务状态
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"    // 等待处理
	StatusProcessing TaskStatus = "processing" // 处理中
	StatusCompleted  TaskStatus = "completed"  // 已完成
	StatusFailed     TaskStatus = "failed"     // 处理失败
)

// Task 表示一个队列任务
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	DocumentID  string          `json:"document_id"`  // 关联的文档ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷
	Result      json.RawMessage `json:"result"`       // 任务结果
	Error       string          `json:"error"`        // 错误信息
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 最近更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
	RetryCount  int             `json:"retry_count"`  // 已重试次数
}

// NewTask 创建新任务
func NewTask(taskType TaskType, documentID string, payload json.RawMessage) *Task {
	return &Task{
		ID:         uuid.New().String(),
		Type:       taskType,
		DocumentID: documentID,
		Status:     StatusPending,
		Payload:    payload,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// ChunkDocumentPayload 文档分块任务的载荷
type ChunkDocumentPayload struct {
	DocumentID   string `json:"document_id"`   // 文档ID
	FilePath     string `json:"file_path"`     // 文档在存储中的路径
	FileName     string `json:"file_name"`     // 文件名
	ChunkSize    int    `json:"chunk_size"`    // 分块大小
	ChunkOverlap int    `json:"chunk_overlap"` // 分块重叠大小
}

// ChunkDocumentResult 文档分块任务的结果
type ChunkDocumentResult struct {
	DocumentID string `json:"document_id"` // 文档ID
	ChunkCount int    `json:"chunk_count"` // 生成的分块数量
	TotalSize  int    `json:"total_size"`  // 文档总字符数
}

// VerifyChunksPayload 分块校验任务的载荷
type VerifyChunksPayload struct {
	DocumentID string `json:"document_id"` // 文档ID
}

// VerifyChunksResult 分块校验任务的结果
type VerifyChunksResult struct {
	DocumentID       string   `json:"document_id"`       // 文档ID
	CoverageComplete bool     `json:"coverage_complete"` // 覆盖是否完整
	OverlapsCorrect  bool     `json:"overlaps_correct"`  // 重叠是否正确
	ContentMatches   bool     `json:"content_matches"`   // 重构内容是否一致
	Issues           []string `json:"issues"`            // 发现的问题列表
}

// MarkProcessing 将任务标记为处理中
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = StatusProcessing
	t.StartedAt = &now
}

// MarkCompleted 将任务标记为已完成
func (t *Task) MarkCompleted(result json.RawMessage) {
	now := time.Now()
	t.Status = StatusCompleted
	t.Result = result
	t.CompletedAt = &now
}

// MarkFailed 将任务标记为失败
func (t *Task) MarkFailed(errMsg string) {
	now := time.Now()
	t.Status = StatusFailed
	t.Error = errMsg
	t.CompletedAt = &now
}

// IsTerminal 判断任务是否处于终态
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
