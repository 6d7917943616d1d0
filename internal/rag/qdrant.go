package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aihub/rag-service/internal/config"
	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/logger"
)

// 单次upsert请求的最大记录数，限制请求体大小
// 批次之间没有原子性保证，中途失败时此前批次已落库
const upsertBatchSize = 100

// QdrantStore Qdrant向量存储客户端
type QdrantStore struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	collection string
	vectorSize int
	distance   string
}

// NewQdrantStore 创建Qdrant向量存储
func NewQdrantStore(cfg config.QdrantConfig) *QdrantStore {
	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6333
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "documents"
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QdrantStore{
		client:     &http.Client{Timeout: timeout},
		endpoint:   fmt.Sprintf("%s://%s:%d", scheme, host, port),
		apiKey:     cfg.APIKey,
		collection: collection,
		vectorSize: cfg.VectorSize,
		distance:   formatDistance(cfg.Distance),
	}
}

func formatDistance(value string) string {
	switch strings.ToLower(value) {
	case "dot", "dotproduct":
		return "Dot"
	case "euclid", "l2":
		return "Euclid"
	default:
		return "Cosine"
	}
}

// EnsureCollection 幂等创建集合及owner_id索引
// 先查询现有集合名，已存在时不报错也不重复创建
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	resp, err := s.doRequest(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return apperrors.NewUpstreamError("qdrant", "list collections failed").WithCause(err)
	}

	var listResp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &listResp); err != nil {
		return apperrors.NewUpstreamError("qdrant", "invalid collections response").WithCause(err)
	}

	for _, c := range listResp.Result.Collections {
		if c.Name == s.collection {
			logger.Info("Qdrant collection already exists", zap.String("collection", s.collection))
			return nil
		}
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.vectorSize,
			"distance": s.distance,
		},
	}
	if _, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection, body); err != nil {
		return apperrors.NewUpstreamError("qdrant", "create collection failed").WithCause(err)
	}

	// owner_id索引支撑检索时的RBAC等值过滤
	indexBody := map[string]interface{}{
		"field_name":   "owner_id",
		"field_schema": "integer",
	}
	if _, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection+"/index", indexBody); err != nil {
		return apperrors.NewUpstreamError("qdrant", "create owner_id index failed").WithCause(err)
	}

	logger.Info("Created Qdrant collection with owner_id index",
		zap.String("collection", s.collection),
		zap.Int("vector_size", s.vectorSize))
	return nil
}

// Upsert 批量写入向量记录，每批最多100条
func (s *QdrantStore) Upsert(ctx context.Context, records []VectorRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		points := make([]map[string]interface{}, 0, end-start)
		for _, record := range records[start:end] {
			points = append(points, map[string]interface{}{
				"id":     record.ID,
				"vector": record.Vector,
				"payload": map[string]interface{}{
					"owner_id":    record.OwnerID,
					"filename":    record.Filename,
					"chunk_index": record.ChunkIndex,
					"text":        record.Text,
				},
			})
		}

		payload := map[string]interface{}{"points": points}
		path := "/collections/" + s.collection + "/points?wait=true"
		if _, err := s.doRequest(ctx, http.MethodPut, path, payload); err != nil {
			return apperrors.NewUpstreamError("qdrant", "upsert failed").WithCause(err)
		}
	}

	return nil
}

// Search 过滤后按余弦相似度返回最多limit条记录
// 过滤发生在排序之前，被排除的记录不会挤占top-limit名额
func (s *QdrantStore) Search(ctx context.Context, vector []float32, filter AccessFilter, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if qf := filter.qdrantFilter(); qf != nil {
		body["filter"] = qf
	}

	resp, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("qdrant", "search failed").WithCause(err)
	}

	var searchResp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &searchResp); err != nil {
		return nil, apperrors.NewUpstreamError("qdrant", "invalid search response").WithCause(err)
	}

	hits := make([]SearchHit, 0, len(searchResp.Result))
	for _, item := range searchResp.Result {
		payload := item.Payload
		hit := SearchHit{
			OwnerID:    parsePayloadInt(payload["owner_id"]),
			ChunkIndex: int(parsePayloadInt(payload["chunk_index"])),
			Score:      item.Score,
		}
		if v, ok := payload["filename"].(string); ok {
			hit.Filename = v
		}
		if v, ok := payload["text"].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Delete 按过滤条件删除记录，一次调用完成，不确认删除数量
func (s *QdrantStore) Delete(ctx context.Context, filter DeleteFilter) error {
	body := map[string]interface{}{
		"filter": filter.qdrantFilter(),
	}
	if _, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete", body); err != nil {
		return apperrors.NewUpstreamError("qdrant", "delete failed").WithCause(err)
	}
	return nil
}

// Stats 获取集合统计，任何失败都降级为零值而非报错
func (s *QdrantStore) Stats(ctx context.Context) CollectionStats {
	resp, err := s.doRequest(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		logger.Warn("Qdrant stats unavailable", zap.Error(err))
		return CollectionStats{TotalVectors: 0, Status: "unknown"}
	}

	var infoResp struct {
		Result struct {
			PointsCount int64  `json:"points_count"`
			Status      string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &infoResp); err != nil {
		return CollectionStats{TotalVectors: 0, Status: "unknown"}
	}

	status := infoResp.Result.Status
	if status == "" {
		status = "unknown"
	}
	return CollectionStats{
		TotalVectors: infoResp.Result.PointsCount,
		Status:       status,
	}
}

func parsePayloadInt(val interface{}) int64 {
	switch v := val.(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		out, _ := v.Int64()
		return out
	case string:
		var out int64
		fmt.Sscanf(v, "%d", &out)
		return out
	default:
		return 0
	}
}

// Ready 检查客户端是否就绪
func (s *QdrantStore) Ready() bool {
	return s != nil && s.client != nil
}

func (s *QdrantStore) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s failed: %s %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}

	return raw, nil
}
