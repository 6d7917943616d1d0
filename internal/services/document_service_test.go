package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aihub/rag-service/internal/config"
	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/rag"
)

// fakeEmbedder 确定性向量化
type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

// fakeGenerator 固定回答
type fakeGenerator struct{}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	return "answer", nil
}

// recordingStore 记录收到的写入与删除过滤器
type recordingStore struct {
	upserted      []rag.VectorRecord
	deleteFilters []rag.DeleteFilter
}

func (s *recordingStore) EnsureCollection(ctx context.Context) error { return nil }

func (s *recordingStore) Upsert(ctx context.Context, records []rag.VectorRecord) error {
	s.upserted = append(s.upserted, records...)
	return nil
}

func (s *recordingStore) Search(ctx context.Context, vector []float32, filter rag.AccessFilter, limit int) ([]rag.SearchHit, error) {
	return nil, nil
}

func (s *recordingStore) Delete(ctx context.Context, filter rag.DeleteFilter) error {
	s.deleteFilters = append(s.deleteFilters, filter)
	return nil
}

func (s *recordingStore) Stats(ctx context.Context) rag.CollectionStats {
	return rag.CollectionStats{}
}

// newTestDB 基于sqlmock构造gorm连接
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

func newTestServices(t *testing.T) (*DocumentService, *UserService, sqlmock.Sqlmock, *recordingStore) {
	t.Helper()
	require.NoError(t, config.LoadConfig())

	db, mock := newTestDB(t)
	store := &recordingStore{}
	pipeline := rag.NewPipeline(
		rag.NewExtractorManager(),
		rag.NewChunker(500, 50),
		&fakeEmbedder{},
		&fakeGenerator{},
		store,
	)
	return NewDocumentService(db, pipeline), NewUserService(db, pipeline), mock, store
}

func TestDocumentService_UploadValidation(t *testing.T) {
	docService, _, _, store := newTestServices(t)

	t.Run("超出大小限制拒绝上传", func(t *testing.T) {
		oversized := make([]byte, config.AppConfig.FileUpload.MaxSize+1)
		_, err := docService.Upload(context.Background(), 1, "big.txt", "text/plain", oversized)
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, apperrors.ErrCodeFileTooLarge, appErr.Code)
		assert.Empty(t, store.upserted)
	})

	t.Run("不支持的类型拒绝上传", func(t *testing.T) {
		_, err := docService.Upload(context.Background(), 1, "binary.exe", "application/octet-stream", []byte("x"))
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, apperrors.ErrCodeInvalidFileFormat, appErr.Code)
		assert.Empty(t, store.upserted)
	})
}

func TestDocumentService_Upload(t *testing.T) {
	docService, _, mock, store := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow(10))
	mock.ExpectCommit()

	result, err := docService.Upload(context.Background(), 7, "notes.txt", "text/plain", []byte("some knowledge base text"))
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.DocumentID)
	assert.Equal(t, "notes.txt", result.Filename)
	assert.Equal(t, 1, result.ChunkCount)

	// 向量记录绑定上传者身份
	require.NotEmpty(t, store.upserted)
	for _, record := range store.upserted {
		assert.Equal(t, int64(7), record.OwnerID)
		assert.Equal(t, "notes.txt", record.Filename)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentService_Delete(t *testing.T) {
	t.Run("admin删他人文档时过滤器绑定文档归属者", func(t *testing.T) {
		docService, _, mock, store := newTestServices(t)

		docRows := sqlmock.NewRows([]string{"document_id", "owner_id", "filename", "chunk_count"}).
			AddRow(10, 2, "report.pdf", 3)
		mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(docRows)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// 管理员user_id=1删除user_id=2的文档
		err := docService.Delete(context.Background(), 10, 1, rag.RoleAdmin)
		require.NoError(t, err)

		require.Len(t, store.deleteFilters, 1)
		assert.Equal(t, int64(2), store.deleteFilters[0].OwnerID)
		assert.Equal(t, "report.pdf", store.deleteFilters[0].Filename)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("普通用户删不到他人文档", func(t *testing.T) {
		docService, _, mock, store := newTestServices(t)

		empty := sqlmock.NewRows([]string{"document_id", "owner_id", "filename", "chunk_count"})
		mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(empty)

		err := docService.Delete(context.Background(), 10, 3, rag.RoleUser)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeResourceNotFound, apperrors.GetAppError(err).Code)
		assert.Empty(t, store.deleteFilters)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("向量删除绑定被删除用户的身份", func(t *testing.T) {
		_, userService, mock, store := newTestServices(t)

		userRows := sqlmock.NewRows([]string{"user_id", "username", "password_hash", "role"}).
			AddRow(5, "bob", "hash", "user")
		mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "documents"`).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// 管理员发起删除，但过滤器用的是用户5的身份
		err := userService.DeleteUser(context.Background(), 5)
		require.NoError(t, err)

		require.Len(t, store.deleteFilters, 1)
		assert.Equal(t, int64(5), store.deleteFilters[0].OwnerID)
		assert.Equal(t, "", store.deleteFilters[0].Filename)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("拒绝删除admin账号", func(t *testing.T) {
		_, userService, mock, store := newTestServices(t)

		adminRows := sqlmock.NewRows([]string{"user_id", "username", "password_hash", "role"}).
			AddRow(1, "admin", "hash", "admin")
		mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(adminRows)

		err := userService.DeleteUser(context.Background(), 1)
		require.Error(t, err)
		assert.Empty(t, store.deleteFilters)
	})
}

func TestUserService_RegisterValidation(t *testing.T) {
	_, userService, _, _ := newTestServices(t)

	cases := []RegisterRequest{
		{Username: "", Password: "secret123"},
		{Username: "a", Password: "secret123"},
		{Username: "alice", Password: "short"},
		{Username: "alice", Password: "secret123", Role: "superuser"},
	}
	for _, req := range cases {
		_, err := userService.Register(req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	}
}
