package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IntegrityReport 分块完整性验证报告
// 三个布尔结果相互独立，Issues按检查顺序累积所有发现的问题
type IntegrityReport struct {
	CoverageComplete bool     `json:"coverage_complete"` // 核心区间是否完整覆盖原文
	OverlapsCorrect  bool     `json:"overlaps_correct"`  // 相邻分块的重叠内容是否一致
	ContentMatches   bool     `json:"content_matches"`   // 重构内容是否与原文一致
	Issues           []string `json:"issues"`            // 问题描述列表
}

// Passed 验证是否全部通过
func (r *IntegrityReport) Passed() bool {
	return r.CoverageComplete && r.OverlapsCorrect && r.ContentMatches
}

// OverlapMetrics 重叠效率分析结果
// 仅用于诊断，不构成通过/失败判定
type OverlapMetrics struct {
	ContentLength int     `json:"content_length"` // 实际内容总长度（不含重叠）
	TotalOverlap  int     `json:"total_overlap"`  // 重叠总长度
	TotalStored   int     `json:"total_stored"`   // 存储内容总长度（含重叠）
	OverlapRatio  float64 `json:"overlap_ratio"`  // 重叠占存储的比例
	Efficiency    float64 `json:"efficiency"`     // 存储效率
}

// Verifier 分块验证工具
// 只产出结构化报告，对错误的分块序列不抛出错误，
// 调用方可以在一次验证中拿到全部问题
type Verifier struct{}

// NewVerifier 创建分块验证工具
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyChunkIntegrity 验证分块完整性
// 依次检查覆盖边界、相邻分块连接、重叠一致性和重构等价性
func (v *Verifier) VerifyChunkIntegrity(chunks []Chunk, originalContent string) *IntegrityReport {
	report := &IntegrityReport{
		CoverageComplete: true,
		OverlapsCorrect:  true,
		ContentMatches:   true,
		Issues:           []string{},
	}

	originalLength := utf8.RuneCountInString(originalContent)

	// 1. 验证覆盖完整性
	if len(chunks) > 0 {
		first := chunks[0]
		last := chunks[len(chunks)-1]

		if first.Position.ContentStart != 0 {
			report.CoverageComplete = false
			report.Issues = append(report.Issues, "first chunk does not start at the beginning of the document")
		}

		if last.Position.ContentEnd != originalLength {
			report.CoverageComplete = false
			report.Issues = append(report.Issues, "last chunk does not reach the end of the document")
		}
	}

	// 2. 验证相邻分块的连接
	for i := 0; i < len(chunks)-1; i++ {
		current := chunks[i]
		next := chunks[i+1]

		// 检查核心区间连接
		if current.Position.ContentEnd != next.Position.ContentStart {
			report.CoverageComplete = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("content gap or duplication between chunk %d and %d", i, i+1))
		}

		// 检查重叠正确性
		if current.Position.OverlapEnd > 0 {
			if current.OverlapWithNext() != next.OverlapWithPrevious() {
				report.OverlapsCorrect = false
				report.Issues = append(report.Issues,
					fmt.Sprintf("overlap content mismatch between chunk %d and %d", i, i+1))
			}
		}
	}

	// 3. 验证内容一致性
	if v.ReconstructContent(chunks) != originalContent {
		report.ContentMatches = false
		report.Issues = append(report.Issues, "reconstructed content does not match original content")
	}

	return report
}

// ReconstructContent 从分块重构原始内容
// 按分块顺序拼接各分块的核心内容；对正确生成的分块序列，
// 重构结果总是与原文完全相等
func (v *Verifier) ReconstructContent(chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var builder strings.Builder
	for i := range chunks {
		builder.WriteString(chunks[i].ContentWithoutOverlap())
	}

	return builder.String()
}

// AnalyzeOverlapEfficiency 分析重叠效率
func (v *Verifier) AnalyzeOverlapEfficiency(chunks []Chunk) OverlapMetrics {
	metrics := OverlapMetrics{}

	for i := range chunks {
		metrics.ContentLength += chunks[i].Position.ContentLength()
		metrics.TotalOverlap += chunks[i].Position.TotalOverlap()
		metrics.TotalStored += utf8.RuneCountInString(chunks[i].Content)
	}

	if metrics.TotalStored > 0 {
		metrics.OverlapRatio = float64(metrics.TotalOverlap) / float64(metrics.TotalStored)
		metrics.Efficiency = float64(metrics.ContentLength) / float64(metrics.TotalStored)
	}

	return metrics
}
