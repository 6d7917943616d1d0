package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/rag-service/internal/config"
	apperrors "github.com/aihub/rag-service/internal/errors"
)

func newTestOllama(baseURL string) *OllamaService {
	return NewOllamaService(config.OllamaConfig{
		BaseURL:    baseURL,
		LLMModel:   "nemotron-mini",
		EmbedModel: "nomic-embed-text",
	})
}

func TestOllamaService_Embed(t *testing.T) {
	var gotReq EmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(EmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	service := newTestOllama(server.URL)
	vector, err := service.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, "hello", gotReq.Input)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestOllamaService_EmbedErrors(t *testing.T) {
	t.Run("非200响应归类为上游错误", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestOllama(server.URL).Embed(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, apperrors.IsUpstream(err))
	})

	t.Run("空向量响应报错", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(EmbedResponse{Embeddings: [][]float32{}})
		}))
		defer server.Close()

		_, err := newTestOllama(server.URL).Embed(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, apperrors.IsUpstream(err))
	})

	t.Run("服务不可达归类为上游错误", func(t *testing.T) {
		_, err := newTestOllama("http://127.0.0.1:1").Embed(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, apperrors.IsUpstream(err))
	})
}

func TestOllamaService_Generate(t *testing.T) {
	var gotReq GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(GenerateResponse{Response: "the answer"})
	}))
	defer server.Close()

	service := newTestOllama(server.URL)
	answer, err := service.Generate(context.Background(), "question prompt", "system instruction")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	// 固定的非流式低随机性生成参数
	assert.Equal(t, "nemotron-mini", gotReq.Model)
	assert.Equal(t, "question prompt", gotReq.Prompt)
	assert.Equal(t, "system instruction", gotReq.System)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.3, gotReq.Options.Temperature)
	assert.Equal(t, 1024, gotReq.Options.NumPredict)
}

func TestOllamaService_GenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestOllama(server.URL).Generate(context.Background(), "p", "s")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}
