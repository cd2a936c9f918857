// Package llm 创建对话模型。支持 openai 兼容接口、Gemini 以及无凭证时使用的 mock。
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// ResolveProvider 返回实际使用的后端。
// 显式配置优先；否则有 Google key 用 gemini，有 LLM api_key 用 openai，都没有则用 mock。
func ResolveProvider(cfg *config.Config) string {
	if p := strings.ToLower(cfg.LLM.Provider); p != "" {
		return p
	}
	switch {
	case cfg.Credentials.GoogleAPIKey != "":
		return ProviderGemini
	case cfg.LLM.APIKey != "":
		return ProviderOpenAI
	default:
		return ProviderMock
	}
}

// NewChatModel 根据配置创建对话模型
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	provider := ResolveProvider(cfg)
	switch provider {
	case ProviderGemini:
		if cfg.Credentials.GoogleAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires google_api_key")
		}
		return NewGeminiChatModel(ctx, &GeminiConfig{
			APIKey:          cfg.Credentials.GoogleAPIKey,
			Model:           orDefault(cfg.LLM.Model, DefaultGeminiModel),
			Temperature:     cfg.LLM.Temperature,
			TopP:            cfg.LLM.TopP,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		})

	case ProviderOpenAI:
		temperature := cfg.LLM.Temperature
		topP := cfg.LLM.TopP
		maxTokens := cfg.LLM.MaxOutputTokens
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       orDefault(cfg.LLM.Model, DefaultOpenAIModel),
			Temperature: &temperature,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return cm, nil

	case ProviderMock:
		logger.Log.Warn("Google API key not provided. LLM functionality will be limited.")
		return NewMockChatModel(), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
