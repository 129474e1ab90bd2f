package chunk

import (
	"fmt"
)

// boundaryChars 分割边界字符集
// 合同文本优先在句号、分号、换行符处分割，次选逗号和冒号
var boundaryChars = []rune{'。', '；', '\n', '，', ':', '：'}

// boundarySearchWindow 边界搜索窗口（字符数）
const boundarySearchWindow = 100

// Chunker 文档分块器
// 将文档内容切分为带重叠标注的有序分块序列
type Chunker struct {
	chunkSize    int // 目标分块大小（字符数，不含重叠）
	chunkOverlap int // 目标重叠大小（字符数）
}

// NewChunker 创建文档分块器
// chunkSize和chunkOverlap均为正整数，由调用方保证；
// chunkOverlap应小于chunkSize，过大的重叠会降低存储效率
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ChunkSize 返回目标分块大小
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// ChunkOverlap 返回目标重叠大小
func (c *Chunker) ChunkOverlap() int {
	return c.chunkOverlap
}

// ProcessDocument 处理文档，生成分块并附加到文档上
// 除了doc.Chunks和doc.UpdatedAt外没有其他副作用
func (c *Chunker) ProcessDocument(doc *Document) (*Document, error) {
	if doc.Content == "" {
		return nil, ErrEmptyContent
	}

	chunks := c.createChunks(doc)

	for _, ch := range chunks {
		if err := doc.AddChunk(ch); err != nil {
			return nil, fmt.Errorf("failed to add chunk %s: %w", ch.ChunkID, err)
		}
	}

	return doc, nil
}

// createChunks 创建带重叠信息的文档分块
func (c *Chunker) createChunks(doc *Document) []Chunk {
	content := []rune(doc.Content)
	var chunks []Chunk

	start := 0
	chunkIndex := 0

	for start < len(content) {
		// 计算当前分块的结束位置
		end := start + c.chunkSize
		if end > len(content) {
			end = len(content)
		}

		// 尝试在合适的边界分割
		if end < len(content) {
			end = c.findSplitBoundary(content, end)
		}

		// 边界搜索可能将end拉回到start之前，保证每次迭代至少前进一个字符
		if end <= start {
			end = start + 1
		}

		// 计算重叠信息
		overlapStart := 0
		overlapEnd := 0
		actualStart := start
		actualEnd := end

		if chunkIndex > 0 { // 不是第一个分块
			overlapStart = min(c.chunkOverlap, start)
			actualStart = start - overlapStart
		}

		if end < len(content) { // 不是最后一个分块
			overlapEnd = min(c.chunkOverlap, len(content)-end)
			actualEnd = min(end+overlapEnd, len(content))
		}

		// 提取分块内容
		chunkContent := string(content[actualStart:actualEnd])

		// 计算位置信息
		position, _ := NewPosition(Position{
			CharStart:    actualStart,
			CharEnd:      actualEnd,
			LineStart:    lineNumber(content, actualStart),
			LineEnd:      lineNumber(content, actualEnd),
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
			ContentStart: start,
			ContentEnd:   end,
		})

		// 创建分块
		ch := NewChunk(Chunk{
			ChunkID:         fmt.Sprintf("%s_chunk_%04d", doc.DocID, chunkIndex),
			ChunkIndex:      chunkIndex,
			Content:         chunkContent,
			Position:        position,
			DocID:           doc.DocID,
			TargetChunkSize: c.chunkSize,
		})

		chunks = append(chunks, ch)

		// 移动到下一个分块
		start = end
		chunkIndex++
	}

	return chunks
}

// findSplitBoundary 寻找合适的分割边界
// 先在position之后最多100个字符内向后搜索边界字符，
// 找不到再在position之前最多100个字符内向前搜索，
// 两者命中时均返回边界字符的下一个位置；都未命中则原样返回（硬切）
func (c *Chunker) findSplitBoundary(content []rune, position int) int {
	searchRange := min(boundarySearchWindow, len(content)-position)

	// 向后搜索边界字符
	for i := 0; i < searchRange; i++ {
		if isBoundaryChar(content[position+i]) {
			return position + i + 1
		}
	}

	// 向前搜索边界字符
	for i := 0; i < min(boundarySearchWindow, position); i++ {
		if isBoundaryChar(content[position-i]) {
			return position - i + 1
		}
	}

	return position
}

// isBoundaryChar 判断是否为边界字符
func isBoundaryChar(r rune) bool {
	for _, b := range boundaryChars {
		if r == b {
			return true
		}
	}
	return false
}

// lineNumber 获取指定字符位置的行号（从1开始）
func lineNumber(content []rune, position int) int {
	line := 1
	for i := 0; i < position; i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
