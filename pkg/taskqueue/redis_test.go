package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisTest 设置一个miniredis实例用于测试
// 返回Redis地址和一个清理函数
func setupRedisTest(t *testing.T) (string, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	return mr.Addr(), func() {
		mr.Close()
	}
}

func testConfig(redisAddr string) *Config {
	return &Config{
		RedisAddr:   redisAddr,
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	}
}

// TestNewRedisQueue 测试创建Redis队列实例
func TestNewRedisQueue(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	assert.NoError(t, err)
	assert.NotNil(t, queue)

	err = queue.Close()
	assert.NoError(t, err)
}

// TestRedisQueue_Enqueue 测试队列入队功能
func TestRedisQueue_Enqueue(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &ChunkDocumentPayload{
		DocumentID:   "doc-123",
		FilePath:     "documents/doc-123/contract.txt",
		FileName:     "contract.txt",
		ChunkSize:    1000,
		ChunkOverlap: 100,
	}

	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-123", payload)
	assert.NoError(t, err)
	assert.NotEmpty(t, taskID)

	// 验证任务已入队
	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskChunkDocument, task.Type)
	assert.Equal(t, "doc-123", task.DocumentID)
	assert.Equal(t, StatusPending, task.Status)
	assert.NotNil(t, task.Payload)

	// 验证载荷可以正确反序列化
	var decoded ChunkDocumentPayload
	err = UnmarshalPayload(task.Payload, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, payload.ChunkSize, decoded.ChunkSize)
	assert.Equal(t, payload.ChunkOverlap, decoded.ChunkOverlap)
}

// TestRedisQueue_EnqueueAt 测试定时入队功能
func TestRedisQueue_EnqueueAt(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	processAt := time.Now().Add(time.Second)
	taskID, err := queue.EnqueueAt(ctx, TaskVerifyChunks, "doc-123", &VerifyChunksPayload{DocumentID: "doc-123"}, processAt)
	assert.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, TaskVerifyChunks, task.Type)
	assert.Equal(t, StatusPending, task.Status)
}

// TestRedisQueue_EnqueueIn 测试延时入队功能
func TestRedisQueue_EnqueueIn(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	taskID, err := queue.EnqueueIn(ctx, TaskChunkDocument, "doc-123", &ChunkDocumentPayload{DocumentID: "doc-123"}, time.Second)
	assert.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, TaskChunkDocument, task.Type)
	assert.Equal(t, StatusPending, task.Status)
}

// TestRedisQueue_GetTasksByDocument 测试获取文档相关任务
func TestRedisQueue_GetTasksByDocument(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	documentID := "doc-456"

	// 为同一个文档入队分块和校验两个任务
	_, err = queue.Enqueue(ctx, TaskChunkDocument, documentID, &ChunkDocumentPayload{
		DocumentID:   documentID,
		ChunkSize:    1000,
		ChunkOverlap: 100,
	})
	require.NoError(t, err)

	_, err = queue.Enqueue(ctx, TaskVerifyChunks, documentID, &VerifyChunksPayload{
		DocumentID: documentID,
	})
	require.NoError(t, err)

	tasks, err := queue.GetTasksByDocument(ctx, documentID)
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)

	for _, task := range tasks {
		assert.Equal(t, documentID, task.DocumentID)
	}

	// 测试获取不存在文档的任务
	emptyTasks, err := queue.GetTasksByDocument(ctx, "non-existent")
	assert.NoError(t, err)
	assert.Empty(t, emptyTasks)
}

// TestRedisQueue_UpdateTaskStatus 测试更新任务状态
func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &ChunkDocumentPayload{
		DocumentID:   "doc-789",
		ChunkSize:    1000,
		ChunkOverlap: 100,
	}

	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-789", payload)
	require.NoError(t, err)

	// 更新任务状态到处理中
	err = queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, "")
	assert.NoError(t, err)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)

	// 更新任务状态到已完成，带结果
	result := &ChunkDocumentResult{
		DocumentID: "doc-789",
		ChunkCount: 3,
		TotalSize:  2600,
	}
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, "")
	assert.NoError(t, err)

	task, err = queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.NotEmpty(t, task.Result)

	var decoded ChunkDocumentResult
	err = UnmarshalPayload(task.Result, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, 3, decoded.ChunkCount)

	// 测试更新到失败状态
	failTaskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-789", payload)
	require.NoError(t, err)

	errorMsg := "document content is empty"
	err = queue.UpdateTaskStatus(ctx, failTaskID, StatusFailed, nil, errorMsg)
	assert.NoError(t, err)

	failTask, err := queue.GetTask(ctx, failTaskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, failTask.Status)
	assert.Equal(t, errorMsg, failTask.Error)
	assert.NotNil(t, failTask.CompletedAt)
}

// TestRedisQueue_DeleteTask 测试删除任务
func TestRedisQueue_DeleteTask(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	documentID := "doc-delete-test"

	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, documentID, &ChunkDocumentPayload{DocumentID: documentID})
	require.NoError(t, err)

	// 确认任务和文档关联存在
	tasks, err := queue.GetTasksByDocument(ctx, documentID)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)

	err = queue.DeleteTask(ctx, taskID)
	assert.NoError(t, err)

	// 验证任务已被删除
	_, err = queue.GetTask(ctx, taskID)
	assert.Error(t, err)
	assert.Equal(t, ErrTaskNotFound, err)

	// 验证文档关联也被删除
	tasks, err = queue.GetTasksByDocument(ctx, documentID)
	assert.NoError(t, err)
	assert.Empty(t, tasks)
}

// TestRedisQueue_WaitForTask 测试等待任务完成
func TestRedisQueue_WaitForTask(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-wait", &ChunkDocumentPayload{DocumentID: "doc-wait"})
	require.NoError(t, err)

	// 已完成的任务应立即返回
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, nil, "")
	require.NoError(t, err)

	task, err := queue.WaitForTask(ctx, taskID, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)

	// 未完成的任务应超时
	pendingID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-wait", &ChunkDocumentPayload{DocumentID: "doc-wait"})
	require.NoError(t, err)

	_, err = queue.WaitForTask(ctx, pendingID, 50*time.Millisecond)
	assert.Equal(t, ErrTaskTimeout, err)
}

// TestRedisQueue_NotifyTaskUpdate 测试任务更新通知
func TestRedisQueue_NotifyTaskUpdate(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-notify", &ChunkDocumentPayload{})
	require.NoError(t, err)

	err = queue.NotifyTaskUpdate(ctx, taskID)
	assert.NoError(t, err)
}

// mockHandler 实现Handler接口，用于测试
type mockHandler struct {
	processFunc func(context.Context, *Task) error
	taskTypes   []TaskType
}

func (h *mockHandler) ProcessTask(ctx context.Context, task *Task) error {
	if h.processFunc != nil {
		return h.processFunc(ctx, task)
	}
	return nil
}

func (h *mockHandler) GetTaskTypes() []TaskType {
	return h.taskTypes
}

// TestRedisWorker 测试Redis工作者处理任务
func TestRedisWorker(t *testing.T) {
	// 工作者依赖asynq的阻塞命令，需要真实Redis服务
	redisAddr := "localhost:6379"

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Skipping Redis worker test: Redis not available at localhost:6379")
		return
	}
	client.Close()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	rq, ok := queue.(*RedisQueue)
	require.True(t, ok, "Failed to cast to RedisQueue")

	worker := NewRedisWorker(rq, nil)
	require.NotNil(t, worker)

	processed := make(chan string, 1)
	worker.RegisterHandler(TaskChunkDocument, &mockHandler{
		processFunc: func(ctx context.Context, task *Task) error {
			processed <- task.ID
			return nil
		},
		taskTypes: []TaskType{TaskChunkDocument},
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- worker.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	taskID, err := queue.Enqueue(ctx, TaskChunkDocument, "doc-worker-test", &ChunkDocumentPayload{
		DocumentID:   "doc-worker-test",
		ChunkSize:    1000,
		ChunkOverlap: 100,
	})
	require.NoError(t, err)

	select {
	case id := <-processed:
		assert.Equal(t, taskID, id)
	case <-time.After(5 * time.Second):
		t.Fatal("Task was not processed within timeout")
	}

	worker.Stop()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Worker returned error: %v", err)
		}
	default:
	}
}

// TestTaskInfo 测试TaskInfo生成
func TestTaskInfo(t *testing.T) {
	now := time.Now()
	startedAt := now.Add(-5 * time.Minute)
	completedAt := now.Add(-1 * time.Minute)

	task := &Task{
		ID:          "task-123",
		Type:        TaskChunkDocument,
		DocumentID:  "doc-123",
		Status:      StatusCompleted,
		CreatedAt:   now.Add(-10 * time.Minute),
		UpdatedAt:   now,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
		MaxRetries:  3,
	}

	info := NewTaskInfo(task)

	assert.Equal(t, task.ID, info.ID)
	assert.Equal(t, task.Type, info.Type)
	assert.Equal(t, task.DocumentID, info.DocumentID)
	assert.Equal(t, task.Status, info.Status)
	assert.Equal(t, task.StartedAt, info.StartedAt)
	assert.Equal(t, task.CompletedAt, info.CompletedAt)
	assert.Equal(t, 100.0, info.Progress) // 已完成状态进度为100%
}
