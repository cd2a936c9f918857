package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// GeminiConfig Gemini 对话模型配置
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// GeminiChatModel 把 genai 客户端适配为 eino 的 BaseChatModel
type GeminiChatModel struct {
	client *genai.Client
	cfg    GeminiConfig
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 创建 Gemini 对话模型
func NewGeminiChatModel(ctx context.Context, cfg *GeminiConfig) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiChatModel{client: client, cfg: *cfg}, nil
}

// Generate implements model.BaseChatModel
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Temperature: &g.cfg.Temperature,
		TopP:        &g.cfg.TopP,
		MaxTokens:   &g.cfg.MaxOutputTokens,
		Model:       &g.cfg.Model,
	}, opts...)

	contents, system := toContents(input)
	genCfg := &genai.GenerateContentConfig{
		Temperature: options.Temperature,
		TopP:        options.TopP,
	}
	if options.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*options.MaxTokens)
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, *options.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return schema.AssistantMessage(resp.Text(), nil), nil
}

// Stream implements model.BaseChatModel，一次性返回完整结果
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// toContents 转换消息，system 消息合并为 SystemInstruction
func toContents(input []*schema.Message) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(input))
	for _, m := range input {
		switch m.Role {
		case schema.System:
			system = append(system, m.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n")
}
