package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_Split(t *testing.T) {
	chunker := NewChunker(500, 50)

	t.Run("短文本产出单个chunk", func(t *testing.T) {
		chunks := chunker.Split("hello world")
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, "hello world", chunks[0].Text)
	})

	t.Run("空文本产出零chunk", func(t *testing.T) {
		assert.Empty(t, chunker.Split(""))
		assert.Empty(t, chunker.Split("   \n\t  "))
	})

	t.Run("1200字符按450步长产出3个chunk", func(t *testing.T) {
		text := strings.Repeat("a", 1200)
		chunks := chunker.Split(text)
		require.Len(t, chunks, 3)

		// 窗口为[0:500] [450:950] [900:1200]
		assert.Len(t, []rune(chunks[0].Text), 500)
		assert.Len(t, []rune(chunks[1].Text), 500)
		assert.Len(t, []rune(chunks[2].Text), 300)

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
		}
	})

	t.Run("窗口恰好落在文本末尾时仍产出尾部重叠chunk", func(t *testing.T) {
		// 恰好500字符：[0:500]之后start=450仍小于长度，再产出[450:500]
		chunks := chunker.Split(strings.Repeat("a", 500))
		require.Len(t, chunks, 2)
		assert.Len(t, []rune(chunks[0].Text), 500)
		assert.Len(t, []rune(chunks[1].Text), 50)

		// 950字符：[0:500] [450:950] [900:950]
		chunks = chunker.Split(strings.Repeat("b", 950))
		require.Len(t, chunks, 3)
		assert.Len(t, []rune(chunks[2].Text), 50)
	})

	t.Run("相邻chunk保留50字符重叠", func(t *testing.T) {
		// 构造无空白字符的可区分序列
		var builder strings.Builder
		alphabet := []rune("abcdefghijklmnopqrstuvwxyz")
		for i := 0; i < 1000; i++ {
			builder.WriteRune(alphabet[i%len(alphabet)])
		}

		chunks := chunker.Split(builder.String())
		require.GreaterOrEqual(t, len(chunks), 2)

		first := []rune(chunks[0].Text)
		second := []rune(chunks[1].Text)
		assert.Equal(t, string(first[450:500]), string(second[:50]))
	})

	t.Run("多余空白被归一化为单个空格", func(t *testing.T) {
		chunks := chunker.Split("hello\n\n\t  world  \r\n again")
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello world again", chunks[0].Text)
	})

	t.Run("多字节字符按rune计数不截断", func(t *testing.T) {
		text := strings.Repeat("中", 600)
		chunks := chunker.Split(text)
		require.Len(t, chunks, 2)
		assert.Len(t, []rune(chunks[0].Text), 500)
		// 每个chunk都是合法UTF-8
		for _, chunk := range chunks {
			assert.True(t, strings.HasPrefix(chunk.Text, "中"))
		}
	})
}

func TestNewChunker_Defaults(t *testing.T) {
	// 非法参数回落到安全默认值
	chunker := NewChunker(0, -1)
	assert.Equal(t, 500, chunker.chunkSize)
	assert.Equal(t, 0, chunker.chunkOverlap)

	// 重叠不小于窗口时收缩为窗口的十分之一
	chunker = NewChunker(100, 100)
	assert.Equal(t, 10, chunker.chunkOverlap)
}
