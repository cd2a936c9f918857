// Package embedding 文本向量化，支持 openai 兼容接口、Gemini 与 mock。
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	DefaultGeminiModel = "text-embedding-004"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// Embedder 向量化接口
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// ModelName 模型标识，用作缓存 key 的一部分
	ModelName() string
}

// ResolveProvider 规则与 LLM 相同：显式配置 > Google key > api_key > mock
func ResolveProvider(cfg *config.Config) string {
	if p := strings.ToLower(cfg.Embedding.Provider); p != "" {
		return p
	}
	switch {
	case cfg.Credentials.GoogleAPIKey != "":
		return ProviderGemini
	case cfg.Embedding.APIKey != "" || cfg.LLM.APIKey != "":
		return ProviderOpenAI
	default:
		return ProviderMock
	}
}

// NewEmbedder 根据配置创建带 LRU 缓存的 Embedder
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch provider := ResolveProvider(cfg); provider {
	case ProviderGemini:
		inner, err = NewGeminiEmbedder(ctx, cfg.Credentials.GoogleAPIKey, orDefault(cfg.Embedding.Model, DefaultGeminiModel))
	case ProviderOpenAI:
		apiKey := orDefault(cfg.Embedding.APIKey, cfg.LLM.APIKey)
		baseURL := orDefault(cfg.Embedding.BaseURL, cfg.LLM.BaseURL)
		inner, err = NewOpenAIEmbedder(baseURL, apiKey, orDefault(cfg.Embedding.Model, DefaultOpenAIModel))
	case ProviderMock:
		logger.Log.Warn("未配置向量化模型凭证，使用 mock embeddings")
		inner = NewMockEmbedder()
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding 初始化失败: %w", err)
	}

	return NewCachedEmbedder(inner, cfg.Embedding.CacheSize), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
