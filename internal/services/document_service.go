package services

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aihub/rag-service/internal/config"
	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/logger"
	"github.com/aihub/rag-service/internal/models"
	"github.com/aihub/rag-service/internal/rag"
)

// DocumentService 文档管理服务
// 负责上传校验与元数据簿记，向量处理全部委托给rag.Pipeline
type DocumentService struct {
	db       *gorm.DB
	pipeline *rag.Pipeline
}

// NewDocumentService 创建文档服务
func NewDocumentService(db *gorm.DB, pipeline *rag.Pipeline) *DocumentService {
	return &DocumentService{db: db, pipeline: pipeline}
}

// UploadResult 上传结果
type UploadResult struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload 上传并入库一份文档
// owner_id取上传者身份，在入库时一次性写入向量记录
func (s *DocumentService) Upload(ctx context.Context, ownerID int64, filename, contentType string, content []byte) (*UploadResult, error) {
	cfg := config.AppConfig

	if int64(len(content)) > cfg.FileUpload.MaxSize {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeFileTooLarge, "file too large")
	}
	if !s.isAllowedType(filename, contentType) {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeInvalidFileFormat,
			"unsupported file type, allowed: PDF, TXT, MD, CSV, DOCX")
	}

	chunkCount, err := s.pipeline.Ingest(ctx, ownerID, filename, content, contentType)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		OwnerID:    ownerID,
		Filename:   filename,
		ChunkCount: chunkCount,
	}
	if err := s.db.Create(doc).Error; err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to record document").WithCause(err)
	}

	return &UploadResult{
		DocumentID: doc.DocumentID,
		Filename:   doc.Filename,
		ChunkCount: chunkCount,
	}, nil
}

// List 列出文档：admin可见全部，普通用户只见自己的
func (s *DocumentService) List(callerID int64, role rag.Role) ([]models.Document, error) {
	var docs []models.Document
	query := s.db.Order("document_id")
	if role != rag.RoleAdmin {
		query = query.Where("owner_id = ?", callerID)
	}
	if err := query.Find(&docs).Error; err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to list documents").WithCause(err)
	}
	return docs, nil
}

// Delete 删除文档及其向量
// 向量删除过滤器绑定文档归属者的owner_id，即便由管理员代为删除
func (s *DocumentService) Delete(ctx context.Context, docID, callerID int64, role rag.Role) error {
	var doc models.Document
	query := s.db.Where("document_id = ?", docID)
	if role != rag.RoleAdmin {
		query = query.Where("owner_id = ?", callerID)
	}
	if err := query.First(&doc).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("document")
		}
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to query document").WithCause(err)
	}

	if err := s.db.Delete(&doc).Error; err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to delete document").WithCause(err)
	}

	if err := s.pipeline.DeleteForOwner(ctx, doc.OwnerID, doc.Filename); err != nil {
		return err
	}

	logger.Info("Document deleted",
		zap.Int64("document_id", doc.DocumentID),
		zap.Int64("owner_id", doc.OwnerID),
		zap.String("filename", doc.Filename))
	return nil
}

// CountDocuments 文档总数（管理面板用）
func (s *DocumentService) CountDocuments() int64 {
	var count int64
	if err := s.db.Model(&models.Document{}).Count(&count).Error; err != nil {
		return 0
	}
	return count
}

func (s *DocumentService) isAllowedType(filename, contentType string) bool {
	if contentType == "application/pdf" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range config.AppConfig.FileUpload.AllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
