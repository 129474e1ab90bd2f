package chunk

// Position 文档分块位置信息
// 所有偏移量均以字符（rune）为单位，而不是字节
type Position struct {
	CharStart int `json:"char_start"` // 存储内容起始位置（含重叠）
	CharEnd   int `json:"char_end"`   // 存储内容结束位置（含重叠）
	LineStart int `json:"line_start"` // 起始行号（从1开始）
	LineEnd   int `json:"line_end"`   // 结束行号（从1开始）

	// 重叠信息
	OverlapStart int `json:"overlap_start"` // 与前一个分块的重叠字符数
	OverlapEnd   int `json:"overlap_end"`   // 与后一个分块的重叠字符数

	// 实际内容边界（不包含重叠）
	ContentStart int `json:"content_start"` // 实际内容起始位置
	ContentEnd   int `json:"content_end"`   // 实际内容结束位置
}

// NewPosition 创建位置信息
// 如果未显式提供内容边界，则根据重叠信息推导；
// 起始位置大于结束位置时立即返回错误，不允许不一致的数据向下游传播
func NewPosition(pos Position) (Position, error) {
	if pos.CharStart > pos.CharEnd {
		return Position{}, ErrInvalidCharRange
	}
	if pos.LineStart > pos.LineEnd {
		return Position{}, ErrInvalidLineRange
	}

	// 计算实际内容边界
	if pos.ContentStart == 0 {
		pos.ContentStart = pos.CharStart + pos.OverlapStart
	}
	if pos.ContentEnd == 0 {
		pos.ContentEnd = pos.CharEnd - pos.OverlapEnd
	}

	return pos, nil
}

// TotalLength 总长度（包含重叠）
func (p Position) TotalLength() int {
	return p.CharEnd - p.CharStart
}

// ContentLength 实际内容长度（不包含重叠）
func (p Position) ContentLength() int {
	return p.ContentEnd - p.ContentStart
}

// TotalOverlap 总重叠长度
func (p Position) TotalOverlap() int {
	return p.OverlapStart + p.OverlapEnd
}
