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

// 生成参数固定取低随机性配置，偏向贴合上下文的回答
const (
	generateTemperature = 0.3
	generateNumPredict  = 1024
)

// OllamaService 统一的Ollama服务，提供Embedding与文本生成
// 每次调用一次网络往返，不做批处理也不做重试，重试策略由调用方决定
type OllamaService struct {
	baseURL        string
	llmModel       string
	embedModel     string
	embedClient    *http.Client
	generateClient *http.Client
}

// EmbedRequest 向量化请求
type EmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// EmbedResponse 向量化响应
type EmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// GenerateRequest 文本生成请求
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions 生成采样参数
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// GenerateResponse 文本生成响应
type GenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaService 创建Ollama服务
func NewOllamaService(cfg config.OllamaConfig) *OllamaService {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	embedTimeout := time.Duration(cfg.EmbedTimeout) * time.Second
	if embedTimeout <= 0 {
		embedTimeout = 60 * time.Second
	}
	generateTimeout := time.Duration(cfg.GenerateTimeout) * time.Second
	if generateTimeout <= 0 {
		generateTimeout = 120 * time.Second
	}

	return &OllamaService{
		baseURL:        baseURL,
		llmModel:       cfg.LLMModel,
		embedModel:     cfg.EmbedModel,
		embedClient:    &http.Client{Timeout: embedTimeout},
		generateClient: &http.Client{Timeout: generateTimeout},
	}
}

// Embed 获取文本的向量表示，取响应中第一个（也是唯一一个）向量
func (s *OllamaService) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := s.doRequest(ctx, s.embedClient, "/api/embed", EmbedRequest{
		Model: s.embedModel,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	var embedResp EmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, apperrors.NewUpstreamError("ollama", "invalid embedding response").WithCause(err)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, apperrors.NewUpstreamError("ollama", "embedding response empty")
	}

	return embedResp.Embeddings[0], nil
}

// Generate 基于prompt和system指令生成回答
func (s *OllamaService) Generate(ctx context.Context, prompt, system string) (string, error) {
	body, err := s.doRequest(ctx, s.generateClient, "/api/generate", GenerateRequest{
		Model:  s.llmModel,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: GenerateOptions{
			Temperature: generateTemperature,
			NumPredict:  generateNumPredict,
		},
	})
	if err != nil {
		return "", err
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", apperrors.NewUpstreamError("ollama", "invalid generate response").WithCause(err)
	}

	return genResp.Response, nil
}

func (s *OllamaService) doRequest(ctx context.Context, client *http.Client, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := s.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewUpstreamError("ollama", "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("ollama", "read response failed").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Ollama request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewUpstreamError("ollama",
			fmt.Sprintf("HTTP %d - %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return body, nil
}

// Ready 检查服务是否就绪
func (s *OllamaService) Ready() bool {
	return s != nil && s.embedClient != nil && s.generateClient != nil
}
