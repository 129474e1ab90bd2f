package chunk

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// Chunk 文档分块
// 由Chunker在处理文档时创建，创建后视为不可变
type Chunk struct {
	ChunkID    string   `json:"chunk_id"`    // 分块唯一标识
	ChunkIndex int      `json:"chunk_index"` // 分块序号（从0开始）
	Content    string   `json:"content"`     // 完整内容（包含重叠部分）
	Position   Position `json:"position"`    // 位置信息
	DocID      string   `json:"doc_id"`      // 所属文档ID

	// 分块配置信息
	TargetChunkSize int `json:"target_chunk_size"` // 目标分块大小
	ActualChunkSize int `json:"actual_chunk_size"` // 实际分块大小（字符数）

	// 元数据
	ContentHash string                 `json:"content_hash"` // 内容哈希
	TokensCount int                    `json:"tokens_count"` // token数量
	CreatedAt   time.Time              `json:"created_at"`   // 创建时间
	Metadata    map[string]interface{} `json:"metadata"`     // 自由元数据
}

// NewChunk 创建文档分块
// 派生字段（哈希、实际大小、token数量、创建时间）在创建时计算一次，之后不再重算
func NewChunk(c Chunk) Chunk {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.ContentHash == "" {
		c.ContentHash = HashContent(c.Content)
	}
	if c.ActualChunkSize == 0 {
		c.ActualChunkSize = utf8.RuneCountInString(c.Content)
	}
	if c.TokensCount == 0 {
		c.TokensCount = CountTokens(c.Content)
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	return c
}

// ContentWithoutOverlap 获取不包含重叠的内容
func (c *Chunk) ContentWithoutOverlap() string {
	runes := []rune(c.Content)
	start := c.Position.OverlapStart
	end := len(runes) - c.Position.OverlapEnd
	if start > end {
		return ""
	}
	return string(runes[start:end])
}

// OverlapWithPrevious 获取与前一个分块的重叠内容
func (c *Chunk) OverlapWithPrevious() string {
	if c.Position.OverlapStart == 0 {
		return ""
	}
	runes := []rune(c.Content)
	return string(runes[:c.Position.OverlapStart])
}

// OverlapWithNext 获取与后一个分块的重叠内容
func (c *Chunk) OverlapWithNext() string {
	if c.Position.OverlapEnd == 0 {
		return ""
	}
	runes := []rune(c.Content)
	return string(runes[len(runes)-c.Position.OverlapEnd:])
}

// GetAbsolutePosition 将分块内的相对位置转换为文档中的绝对位置
func (c *Chunk) GetAbsolutePosition(relativePos int) int {
	return c.Position.CharStart + relativePos
}

// GetRelativePosition 将文档中的绝对位置转换为分块内的相对位置
func (c *Chunk) GetRelativePosition(absolutePos int) int {
	return absolutePos - c.Position.CharStart
}

// HashContent 计算内容的md5哈希
func HashContent(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CountTokens 简单的token计数（按空白分词，仅作粗略估计）
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
