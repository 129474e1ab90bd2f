package chunk

import (
	"time"
)

// Document 待分块的文档
// 文档独占持有分块列表，分块只通过DocID回指文档身份
type Document struct {
	DocID             string `json:"doc_id"`              // 文档唯一标识
	FileName          string `json:"file_name"`           // 文件名
	FilePath          string `json:"file_path"`           // 文件路径
	FileChecksum      string `json:"file_checksum"`       // 文件校验和
	FileExtensionName string `json:"file_extension_name"` // 文件扩展名
	TotalSize         int64  `json:"total_size"`          // 文件总大小

	// 分块配置
	ChunkSize    int `json:"chunk_size"`    // 分块大小
	ChunkOverlap int `json:"chunk_overlap"` // 分块重叠

	// 文档信息
	Content   string                 `json:"content"`    // 原始内容
	Chunks    []Chunk                `json:"chunks"`     // 分块列表（插入顺序即分块序号顺序）
	CreatedAt time.Time              `json:"created_at"` // 创建时间
	UpdatedAt time.Time              `json:"updated_at"` // 更新时间
	Metadata  map[string]interface{} `json:"metadata"`   // 元数据
}

// NewDocument 创建文档
func NewDocument(doc Document) *Document {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.Chunks == nil {
		doc.Chunks = make([]Chunk, 0)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]interface{})
	}
	return &doc
}

// ChunkCount 获取分块数量
func (d *Document) ChunkCount() int {
	return len(d.Chunks)
}

// AddChunk 添加分块
// 分块的DocID与文档不匹配时拒绝添加，不产生任何状态变更
func (d *Document) AddChunk(c Chunk) error {
	if c.DocID != d.DocID {
		return ErrChunkOwnership
	}
	d.Chunks = append(d.Chunks, c)
	d.UpdatedAt = time.Now()
	return nil
}

// GetChunkByPosition 根据字符位置获取分块
// 返回第一个存储范围覆盖该位置的分块，未命中返回nil
func (d *Document) GetChunkByPosition(charPosition int) *Chunk {
	for i := range d.Chunks {
		c := &d.Chunks[i]
		if c.Position.CharStart <= charPosition && charPosition <= c.Position.CharEnd {
			return c
		}
	}
	return nil
}
