package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fyerfyer/contract-chunker/api/middleware"
	"github.com/fyerfyer/contract-chunker/api/model"
	"github.com/fyerfyer/contract-chunker/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler 处理任务相关的API请求
type TaskHandler struct {
	queue  taskqueue.Queue // 任务队列
	logger *logrus.Logger  // 日志记录器
}

// NewTaskHandler 创建新的任务处理器
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		queue:  queue,
		logger: middleware.GetLogger(),
	}
}

// GetTaskStatus 获取任务状态
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"任务ID不能为空",
		))
		return
	}

	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, model.NewErrorResponse(
			http.StatusServiceUnavailable,
			"任务队列未启用",
		))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"任务未找到",
			))
			return
		}

		h.logger.WithError(err).WithField("task_id", taskID).Error("Failed to get task")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务状态失败: "+err.Error(),
		))
		return
	}

	if task == nil {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			"任务未找到",
		))
		return
	}

	// 将任务信息转换为JSON安全的Map
	taskInfo := map[string]interface{}{
		"id":          task.ID,
		"type":        string(task.Type),
		"document_id": task.DocumentID,
		"status":      string(task.Status),
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	}

	if task.Error != "" {
		taskInfo["error"] = task.Error
	}

	if len(task.Result) > 0 {
		var result map[string]interface{}
		if err := json.Unmarshal(task.Result, &result); err == nil {
			taskInfo["result"] = result
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskInfo))
}

// GetDocumentTasks 获取文档相关的所有任务
// GET /api/documents/:id/tasks
func (h *TaskHandler) GetDocumentTasks(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"文档ID不能为空",
		))
		return
	}

	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, model.NewErrorResponse(
			http.StatusServiceUnavailable,
			"任务队列未启用",
		))
		return
	}

	tasks, err := h.queue.GetTasksByDocument(c.Request.Context(), documentID)
	if err != nil {
		h.logger.WithError(err).WithField("document_id", documentID).Error("Failed to get document tasks")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取文档任务列表失败: "+err.Error(),
		))
		return
	}

	// 将任务列表转换为JSON安全的格式
	tasksInfo := make([]map[string]interface{}, len(tasks))
	for i, task := range tasks {
		tasksInfo[i] = map[string]interface{}{
			"id":         task.ID,
			"type":       string(task.Type),
			"status":     string(task.Status),
			"created_at": task.CreatedAt,
			"updated_at": task.UpdatedAt,
		}

		if task.Error != "" {
			tasksInfo[i]["error"] = task.Error
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(map[string]interface{}{
		"document_id": documentID,
		"tasks":       tasksInfo,
	}))
}
