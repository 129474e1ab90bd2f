package model

import (
	"time"

	"github.com/fyerfyer/contract-chunker/internal/chunk"
	"github.com/fyerfyer/contract-chunker/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse 文档上传响应
type DocumentUploadResponse struct {
	DocID        string `json:"doc_id"`        // 文档ID
	FileName     string `json:"filename"`      // 文件名
	Status       string `json:"status"`        // 文档状态：uploaded、processing、completed、failed
	ChunkSize    int    `json:"chunk_size"`    // 目标分块大小
	ChunkOverlap int    `json:"chunk_overlap"` // 分块重叠大小
}

// DocumentStatusResponse 文档状态查询响应
type DocumentStatusResponse struct {
	DocID      string `json:"doc_id"`               // 文档ID
	Status     string `json:"status"`               // 处理状态
	FileName   string `json:"filename"`             // 文件名
	Progress   int    `json:"progress"`             // 处理进度（0-100）
	Stage      string `json:"stage,omitempty"`      // 当前处理阶段
	Error      string `json:"error,omitempty"`      // 错误信息（如果有）
	ChunkCount int    `json:"chunk_count"`          // 分块数量（处理完成后）
	UploadedAt string `json:"uploaded_at"`          // 上传时间
	UpdatedAt  string `json:"updated_at"`           // 更新时间
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	DocID        string    `json:"doc_id"`        // 文档ID
	FileName     string    `json:"filename"`      // 文件名
	Status       string    `json:"status"`        // 状态
	Tags         string    `json:"tags"`          // 标签
	FileSize     int64     `json:"file_size"`     // 文件大小（字节）
	ChunkSize    int       `json:"chunk_size"`    // 目标分块大小
	ChunkOverlap int       `json:"chunk_overlap"` // 分块重叠大小
	ChunkCount   int       `json:"chunk_count"`   // 分块数量
	UploadedAt   time.Time `json:"uploaded_at"`   // 上传时间
}

// NewDocumentInfo 将文档记录转换为响应信息
func NewDocumentInfo(doc *models.Document) DocumentInfo {
	return DocumentInfo{
		DocID:        doc.ID,
		FileName:     doc.FileName,
		Status:       string(doc.Status),
		Tags:         doc.Tags,
		FileSize:     doc.FileSize,
		ChunkSize:    doc.ChunkSize,
		ChunkOverlap: doc.ChunkOverlap,
		ChunkCount:   doc.ChunkCount,
		UploadedAt:   doc.UploadedAt,
	}
}

// DocumentListResponse 文档列表响应
type DocumentListResponse struct {
	Total     int64          `json:"total"`     // 总数量
	Page      int            `json:"page"`      // 当前页码
	PageSize  int            `json:"page_size"` // 每页大小
	Documents []DocumentInfo `json:"documents"` // 文档列表
}

// DocumentDeleteResponse 文档删除响应
type DocumentDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	DocID   string `json:"doc_id"`  // 文档ID
}

// ChunkProcessResponse 分块处理响应
type ChunkProcessResponse struct {
	DocID  string `json:"doc_id"`            // 文档ID
	Status string `json:"status"`            // 处理后的文档状态
	Async  bool   `json:"async"`             // 是否异步处理
	TaskID string `json:"task_id,omitempty"` // 异步任务ID（异步模式下）
}

// PositionInfo 分块位置信息
type PositionInfo struct {
	CharStart    int `json:"char_start"`    // 存储内容起始位置（含重叠）
	CharEnd      int `json:"char_end"`      // 存储内容结束位置（含重叠）
	LineStart    int `json:"line_start"`    // 起始行号
	LineEnd      int `json:"line_end"`      // 结束行号
	OverlapStart int `json:"overlap_start"` // 前重叠字符数
	OverlapEnd   int `json:"overlap_end"`   // 后重叠字符数
	ContentStart int `json:"content_start"` // 核心内容起始位置
	ContentEnd   int `json:"content_end"`   // 核心内容结束位置
}

// ChunkInfo 分块信息
type ChunkInfo struct {
	ChunkID         string       `json:"chunk_id"`          // 分块ID
	ChunkIndex      int          `json:"chunk_index"`       // 分块序号
	Content         string       `json:"content"`           // 分块内容（含重叠）
	Position        PositionInfo `json:"position"`          // 位置信息
	TargetChunkSize int          `json:"target_chunk_size"` // 目标分块大小
	ActualChunkSize int          `json:"actual_chunk_size"` // 实际分块大小
	ContentHash     string       `json:"content_hash"`      // 内容哈希
	TokensCount     int          `json:"tokens_count"`      // token数量
}

// NewChunkInfo 将分块转换为响应信息
func NewChunkInfo(c *chunk.Chunk) ChunkInfo {
	return ChunkInfo{
		ChunkID:         c.ChunkID,
		ChunkIndex:      c.ChunkIndex,
		Content:         c.Content,
		TargetChunkSize: c.TargetChunkSize,
		ActualChunkSize: c.ActualChunkSize,
		ContentHash:     c.ContentHash,
		TokensCount:     c.TokensCount,
		Position: PositionInfo{
			CharStart:    c.Position.CharStart,
			CharEnd:      c.Position.CharEnd,
			LineStart:    c.Position.LineStart,
			LineEnd:      c.Position.LineEnd,
			OverlapStart: c.Position.OverlapStart,
			OverlapEnd:   c.Position.OverlapEnd,
			ContentStart: c.Position.ContentStart,
			ContentEnd:   c.Position.ContentEnd,
		},
	}
}

// ChunkListResponse 分块列表响应
type ChunkListResponse struct {
	DocID  string      `json:"doc_id"` // 文档ID
	Total  int         `json:"total"`  // 分块总数
	Chunks []ChunkInfo `json:"chunks"` // 分块列表
}

// VerifyResponse 完整性验证响应
type VerifyResponse struct {
	DocID            string   `json:"doc_id"`            // 文档ID
	Passed           bool     `json:"passed"`            // 是否通过所有检查
	CoverageComplete bool     `json:"coverage_complete"` // 核心区间是否完整覆盖原文
	OverlapsCorrect  bool     `json:"overlaps_correct"`  // 相邻分块重叠是否一致
	ContentMatches   bool     `json:"content_matches"`   // 重构内容是否与原文一致
	Issues           []string `json:"issues"`            // 问题描述列表
}

// NewVerifyResponse 将完整性报告转换为响应
func NewVerifyResponse(docID string, report *chunk.IntegrityReport) VerifyResponse {
	issues := report.Issues
	if issues == nil {
		issues = []string{}
	}
	return VerifyResponse{
		DocID:            docID,
		Passed:           report.Passed(),
		CoverageComplete: report.CoverageComplete,
		OverlapsCorrect:  report.OverlapsCorrect,
		ContentMatches:   report.ContentMatches,
		Issues:           issues,
	}
}

// EfficiencyResponse 重叠效率分析响应
type EfficiencyResponse struct {
	DocID         string  `json:"doc_id"`         // 文档ID
	ContentLength int     `json:"content_length"` // 实际内容总长度（不含重叠）
	TotalOverlap  int     `json:"total_overlap"`  // 重叠总长度
	TotalStored   int     `json:"total_stored"`   // 存储内容总长度（含重叠）
	OverlapRatio  float64 `json:"overlap_ratio"`  // 重叠占存储的比例
	Efficiency    float64 `json:"efficiency"`     // 存储效率
}

// NewEfficiencyResponse 将重叠指标转换为响应
func NewEfficiencyResponse(docID string, metrics *chunk.OverlapMetrics) EfficiencyResponse {
	return EfficiencyResponse{
		DocID:         docID,
		ContentLength: metrics.ContentLength,
		TotalOverlap:  metrics.TotalOverlap,
		TotalStored:   metrics.TotalStored,
		OverlapRatio:  metrics.OverlapRatio,
		Efficiency:    metrics.Efficiency,
	}
}

// ReconstructResponse 文档重构响应
type ReconstructResponse struct {
	DocID   string `json:"doc_id"`  // 文档ID
	Content string `json:"content"` // 重构后的完整内容
	Length  int    `json:"length"`  // 内容长度（字符数）
}
