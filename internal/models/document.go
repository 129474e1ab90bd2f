package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus 文档处理状态类型
type DocumentStatus string

const (
	// DocStatusUploaded 文档已上传，等待分块
	DocStatusUploaded DocumentStatus = "uploaded"
	// DocStatusProcessing 文档分块中
	DocStatusProcessing DocumentStatus = "processing"
	// DocStatusCompleted 文档分块完成
	DocStatusCompleted DocumentStatus = "completed"
	// DocStatusFailed 文档分块失败
	DocStatusFailed DocumentStatus = "failed"
)

// ProcessStage 文档处理阶段
type ProcessStage string

const (
	// StageChunking 分块阶段
	StageChunking ProcessStage = "chunking"
	// StageVerifying 验证阶段
	StageVerifying ProcessStage = "verifying"
	// StageCompleted 处理完成
	StageCompleted ProcessStage = "completed"
)

// Document 文档数据模型
// 用于存储文档的元数据和分块配置
type Document struct {
	ID            string         `gorm:"primaryKey"`         // 文档ID，主键
	FileName      string         `gorm:"not null"`           // 文件名
	FilePath      string         `gorm:"not null"`           // 文件路径
	FileChecksum  string         `gorm:"size:64"`            // 文件校验和
	FileExtension string         `gorm:"size:16"`            // 文件扩展名
	FileSize      int64          `gorm:"not null"`           // 文件大小（字节）
	ChunkSize     int            `gorm:"not null"`           // 目标分块大小
	ChunkOverlap  int            `gorm:"not null"`           // 目标重叠大小
	Status        DocumentStatus `gorm:"not null;index"`     // 处理状态
	UploadedAt    time.Time      `gorm:"not null;index"`     // 上传时间
	ProcessedAt   *time.Time     `gorm:"index"`              // 处理完成时间
	UpdatedAt     time.Time      `gorm:"not null;index"`     // 更新时间
	Progress      int            `gorm:"not null;default:0"` // 处理进度（0-100）
	Error         string         `gorm:"type:text"`          // 错误信息
	ChunkCount    int            `gorm:"not null;default:0"` // 分块数量
	Tags          string         `gorm:"type:varchar(255)"`  // 标签，逗号分隔
	Metadata      datatypes.JSON `gorm:"type:json"`          // 元数据，JSON格式
	CurrentStage  ProcessStage   `gorm:"size:20"`            // 当前处理阶段
	CurrentTaskID string         `gorm:"size:50;index"`      // 当前关联的任务ID
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (d *Document) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Document) TableName() string {
	return "documents"
}

// DocumentChunk 文档分块数据模型
// 持久化分块内容和完整的位置元数据，使分块可以被重新加载并再次验证
type DocumentChunk struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"` // 主键ID
	DocumentID string `gorm:"not null;index"`           // 所属文档ID
	ChunkID    string `gorm:"not null;uniqueIndex"`     // 分块唯一ID
	ChunkIndex int    `gorm:"not null"`                 // 分块序号
	Content    string `gorm:"type:text;not null"`       // 分块内容（含重叠）

	// 位置信息（字符偏移）
	CharStart    int `gorm:"not null"`           // 存储起始位置
	CharEnd      int `gorm:"not null"`           // 存储结束位置
	LineStart    int `gorm:"not null;default:1"` // 起始行号
	LineEnd      int `gorm:"not null;default:1"` // 结束行号
	OverlapStart int `gorm:"not null;default:0"` // 前重叠字符数
	OverlapEnd   int `gorm:"not null;default:0"` // 后重叠字符数
	ContentStart int `gorm:"not null"`           // 核心内容起始位置
	ContentEnd   int `gorm:"not null"`           // 核心内容结束位置

	TargetChunkSize int            `gorm:"not null;default:0"` // 目标分块大小
	ActualChunkSize int            `gorm:"not null;default:0"` // 实际分块大小（字符数）
	ContentHash     string         `gorm:"size:32;index"`      // 内容哈希
	TokensCount     int            `gorm:"not null;default:0"` // token数量
	CreatedAt       time.Time      `gorm:"not null"`           // 创建时间
	UpdatedAt       time.Time      `gorm:"not null"`           // 更新时间
	Metadata        datatypes.JSON `gorm:"type:json"`          // 分块元数据
	TaskID          string         `gorm:"size:50;index"`      // 生成此分块的任务ID
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (dc *DocumentChunk) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if dc.CreatedAt.IsZero() {
		dc.CreatedAt = now
	}
	dc.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (dc *DocumentChunk) BeforeUpdate(tx *gorm.DB) (err error) {
	dc.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (DocumentChunk) TableName() string {
	return "document_chunks"
}
