package model

import (
	"mime/multipart"
	"time"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// DocumentUploadRequest 文档上传请求
type DocumentUploadRequest struct {
	File         *multipart.FileHeader `form:"file" binding:"required"`                                // 文件对象
	ChunkSize    int                   `form:"chunk_size" json:"chunk_size" binding:"omitempty"`       // 目标分块大小（字符数），0表示使用默认值
	ChunkOverlap *int                  `form:"chunk_overlap" json:"chunk_overlap" binding:"omitempty"` // 分块重叠大小（字符数），空值表示使用默认值
	Tags         string                `form:"tags" json:"tags" binding:"omitempty"`                   // 文档标签，逗号分隔
}

// DocumentIDRequest 基于路径参数的文档请求
type DocumentIDRequest struct {
	ID string `uri:"id" binding:"required"` // 文档ID
}

// DocumentListRequest 文档列表请求
type DocumentListRequest struct {
	PaginationRequest
	StartTime *time.Time `form:"start_time" json:"start_time" binding:"omitempty"` // 开始时间
	EndTime   *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`     // 结束时间
	Status    string     `form:"status" json:"status" binding:"omitempty"`         // 文档状态
	FileName  string     `form:"file_name" json:"file_name" binding:"omitempty"`   // 文件名模糊过滤
}

// ChunkProcessRequest 分块处理请求
// 触发一次文档分块，async决定同步执行还是提交到任务队列
type ChunkProcessRequest struct {
	ID    string `uri:"id" binding:"required"`   // 文档ID
	Async *bool  `form:"async" json:"async"`     // 是否异步处理，空值跟随服务默认配置
	Wait  bool   `form:"wait" json:"wait"`       // 异步时是否阻塞等待完成
}

// ChunkListRequest 分块列表请求
type ChunkListRequest struct {
	ID       string `uri:"id" binding:"required"`                        // 文档ID
	Position *int   `form:"position" json:"position" binding:"omitempty"` // 可选的字符偏移，定位包含该位置的分块
}

// ChunkIndexRequest 单个分块请求
type ChunkIndexRequest struct {
	ID    string `uri:"id" binding:"required"`           // 文档ID
	Index int    `uri:"index" binding:"omitempty,min=0"` // 分块序号，从0开始
}

// DocumentTagsRequest 更新文档标签请求
type DocumentTagsRequest struct {
	Tags string `json:"tags"` // 新标签，逗号分隔，空串表示清空
}
