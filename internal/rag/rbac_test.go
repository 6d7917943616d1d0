package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	role, err = ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	// 未识别的角色必须解析失败，不能静默降级
	_, err = ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
	_, err = ParseRole("Admin")
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	t.Run("普通用户绑定自身owner_id", func(t *testing.T) {
		filter := BuildFilter(RoleUser, 42)
		assert.False(t, filter.Unrestricted())
		assert.Equal(t, int64(42), filter.OwnerID())
		assert.True(t, filter.Allows(42))
		assert.False(t, filter.Allows(7))
	})

	t.Run("admin不受限", func(t *testing.T) {
		filter := BuildFilter(RoleAdmin, 1)
		assert.True(t, filter.Unrestricted())
		assert.True(t, filter.Allows(42))
		assert.True(t, filter.Allows(7))
	})
}

func TestAccessFilter_QdrantFilter(t *testing.T) {
	// admin过滤器渲染为nil，请求体中省略filter字段
	assert.Nil(t, BuildFilter(RoleAdmin, 1).qdrantFilter())

	qf := BuildFilter(RoleUser, 42).qdrantFilter()
	require.NotNil(t, qf)
	must := qf["must"].([]map[string]interface{})
	require.Len(t, must, 1)
	assert.Equal(t, "owner_id", must[0]["key"])
	assert.Equal(t, map[string]interface{}{"value": int64(42)}, must[0]["match"])
}

func TestDeleteFilter(t *testing.T) {
	t.Run("filename为空时匹配该用户全部记录", func(t *testing.T) {
		filter := DeleteFilter{OwnerID: 3}
		assert.True(t, filter.Matches(3, "a.pdf"))
		assert.True(t, filter.Matches(3, "b.txt"))
		assert.False(t, filter.Matches(4, "a.pdf"))
	})

	t.Run("filename收窄到单个文档", func(t *testing.T) {
		filter := DeleteFilter{OwnerID: 3, Filename: "a.pdf"}
		assert.True(t, filter.Matches(3, "a.pdf"))
		assert.False(t, filter.Matches(3, "b.txt"))
		assert.False(t, filter.Matches(4, "a.pdf"))
	})

	t.Run("渲染的filter始终包含owner_id子句", func(t *testing.T) {
		qf := DeleteFilter{OwnerID: 3, Filename: "a.pdf"}.qdrantFilter()
		must := qf["must"].([]map[string]interface{})
		require.Len(t, must, 2)
		assert.Equal(t, "owner_id", must[0]["key"])
		assert.Equal(t, "filename", must[1]["key"])
	})
}
