package models

import (
	"time"
)

// 角色字符串枚举，与rag.ParseRole保持一致
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户模型
// UserID即向量记录上的owner_id，是唯一的访问控制键
type User struct {
	UserID       int64     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username     string    `gorm:"size:100;not null;unique" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:user" json:"role"`
	CreateTime   time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
