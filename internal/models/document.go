package models

import (
	"time"
)

// Document 文档登记信息
// 向量数据本身存放在Qdrant，这里只做非向量元数据的簿记
type Document struct {
	DocumentID int64     `gorm:"primaryKey;column:document_id" json:"document_id"`
	OwnerID    int64     `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	UploadTime time.Time `gorm:"column:upload_time;autoCreateTime" json:"upload_time"`
}

func (Document) TableName() string {
	return "documents"
}
