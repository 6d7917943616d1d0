package rag

import (
	"fmt"
)

// Role 调用者角色，封闭枚举
// 未识别的角色字符串在解析阶段即失败，绝不会落到无过滤检索
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// ParseRole 解析角色字符串
func ParseRole(value string) (Role, error) {
	switch value {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("unknown role: %q", value)
	}
}

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// AccessFilter 检索访问谓词：admin不受限，普通用户只能命中owner_id等于自己的记录
// 每次查询由BuildFilter重新构造，不跨调用者复用
type AccessFilter struct {
	unrestricted bool
	ownerID      int64
}

// BuildFilter 根据角色和调用者身份构造访问过滤器
// 这是系统中唯一的授权决策点
func BuildFilter(role Role, callerID int64) AccessFilter {
	if role == RoleAdmin {
		return AccessFilter{unrestricted: true}
	}
	return AccessFilter{ownerID: callerID}
}

// Unrestricted 是否为无限制过滤器（admin）
func (f AccessFilter) Unrestricted() bool {
	return f.unrestricted
}

// OwnerID 受限过滤器绑定的调用者身份
func (f AccessFilter) OwnerID() int64 {
	return f.ownerID
}

// qdrantFilter 渲染为Qdrant filter子句，无限制时返回nil
func (f AccessFilter) qdrantFilter() map[string]interface{} {
	if f.unrestricted {
		return nil
	}
	return map[string]interface{}{
		"must": []map[string]interface{}{
			{
				"key":   "owner_id",
				"match": map[string]interface{}{"value": f.ownerID},
			},
		},
	}
}

// DeleteFilter 删除谓词，始终绑定被操作用户的owner_id，可选按文件名收窄
type DeleteFilter struct {
	OwnerID  int64
	Filename string
}

func (f DeleteFilter) qdrantFilter() map[string]interface{} {
	must := []map[string]interface{}{
		{
			"key":   "owner_id",
			"match": map[string]interface{}{"value": f.OwnerID},
		},
	}
	if f.Filename != "" {
		must = append(must, map[string]interface{}{
			"key":   "filename",
			"match": map[string]interface{}{"value": f.Filename},
		})
	}
	return map[string]interface{}{"must": must}
}

// Matches 判断一条记录是否落在删除范围内（供内存实现与测试使用）
func (f DeleteFilter) Matches(ownerID int64, filename string) bool {
	if ownerID != f.OwnerID {
		return false
	}
	return f.Filename == "" || f.Filename == filename
}

// Allows 判断访问过滤器是否允许看到指定owner的记录
func (f AccessFilter) Allows(ownerID int64) bool {
	return f.unrestricted || f.ownerID == ownerID
}
