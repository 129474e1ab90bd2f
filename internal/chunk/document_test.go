package chunk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(t *testing.T, docID string, index, charStart, charEnd int) Chunk {
	t.Helper()

	pos, err := NewPosition(Position{
		CharStart: charStart,
		CharEnd:   charEnd,
		LineStart: 1,
		LineEnd:   1,
	})
	require.NoError(t, err)

	return NewChunk(Chunk{
		ChunkID:    docID + "_chunk_0000",
		ChunkIndex: index,
		Content:    "test content",
		Position:   pos,
		DocID:      docID,
	})
}

// TestDocumentAddChunk 测试分块添加与所属关系校验
func TestDocumentAddChunk(t *testing.T) {
	t.Run("add own chunk", func(t *testing.T) {
		doc := NewDocument(Document{DocID: "doc1"})
		before := doc.UpdatedAt

		time.Sleep(time.Millisecond)
		err := doc.AddChunk(newTestChunk(t, "doc1", 0, 0, 10))
		require.NoError(t, err)

		assert.Equal(t, 1, doc.ChunkCount())
		assert.True(t, doc.UpdatedAt.After(before), "添加分块后更新时间应前进")
	})

	t.Run("reject foreign chunk", func(t *testing.T) {
		doc := NewDocument(Document{DocID: "doc1"})
		require.NoError(t, doc.AddChunk(newTestChunk(t, "doc1", 0, 0, 10)))
		updatedAt := doc.UpdatedAt

		err := doc.AddChunk(newTestChunk(t, "doc2", 1, 10, 20))
		assert.ErrorIs(t, err, ErrChunkOwnership, "不属于当前文档的分块应被拒绝")

		// 拒绝时不应有任何状态变更
		assert.Equal(t, 1, doc.ChunkCount(), "分块列表不应被修改")
		assert.Equal(t, updatedAt, doc.UpdatedAt, "更新时间不应被修改")
	})
}

// TestDocumentDefaults 测试文档创建时的默认值
func TestDocumentDefaults(t *testing.T) {
	doc := NewDocument(Document{DocID: "doc1"})

	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
	assert.NotNil(t, doc.Chunks)
	assert.NotNil(t, doc.Metadata)
	assert.Equal(t, 0, doc.ChunkCount())
}

// TestGetChunkByPosition 测试根据字符位置查找分块
func TestGetChunkByPosition(t *testing.T) {
	doc := NewDocument(Document{DocID: "doc1"})
	require.NoError(t, doc.AddChunk(newTestChunk(t, "doc1", 0, 0, 100)))
	require.NoError(t, doc.AddChunk(newTestChunk(t, "doc1", 1, 100, 200)))

	t.Run("position in first chunk", func(t *testing.T) {
		c := doc.GetChunkByPosition(50)
		require.NotNil(t, c)
		assert.Equal(t, 0, c.ChunkIndex)
	})

	t.Run("boundary position returns first match", func(t *testing.T) {
		c := doc.GetChunkByPosition(100)
		require.NotNil(t, c)
		assert.Equal(t, 0, c.ChunkIndex, "边界位置应返回第一个覆盖它的分块")
	})

	t.Run("position out of range", func(t *testing.T) {
		assert.Nil(t, doc.GetChunkByPosition(500))
	})
}
