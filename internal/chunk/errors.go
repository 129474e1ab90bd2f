package chunk

import "errors"

var (
	// ErrEmptyContent 文档内容为空错误
	ErrEmptyContent = errors.New("document content is empty")

	// ErrChunkOwnership 分块不属于当前文档错误
	ErrChunkOwnership = errors.New("chunk does not belong to this document")

	// ErrInvalidCharRange 字符起始位置大于结束位置错误
	ErrInvalidCharRange = errors.New("char start position cannot be greater than char end position")

	// ErrInvalidLineRange 起始行号大于结束行号错误
	ErrInvalidLineRange = errors.New("line start cannot be greater than line end")
)
