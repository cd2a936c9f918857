package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockTrendsResponse mock 模型对分析请求的固定输出
const MockTrendsResponse = `{
  "trends": [
    {
      "trend_name": "AI Integration in SaaS",
      "description": "Increasing adoption of AI capabilities in SaaS products.",
      "supporting_evidence": ["Microsoft's integration of GPT-4", "Salesforce Einstein AI adoption up 45% YoY"],
      "estimated_impact": "High",
      "timeframe": "Short-term",
      "confidence_score": 0.89
    }
  ],
  "opportunities": [
    {
      "title": "AI-Powered Customer Support",
      "description": "Implementing AI chatbots for customer support.",
      "potential_impact": "High",
      "implementation_difficulty": "Medium",
      "recommended_actions": ["Evaluate AI chatbot providers", "Start with simple use cases"]
    }
  ],
  "risks": [
    {
      "title": "Increasing Competition",
      "description": "New entrants with AI-first approaches may disrupt established players.",
      "severity": "Medium",
      "likelihood": "High",
      "mitigation_strategies": ["Accelerate AI adoption", "Focus on unique value proposition"]
    }
  ]
}`

// MockAnswerResponse mock 模型对追问的固定输出
const MockAnswerResponse = `{
  "answer": "Based on the previous analysis, AI integration is the strongest trend in this market.",
  "sources": ["Previous market trends analysis"],
  "confidence": 0.5
}`

// MockChatModel 没有配置 LLM 凭证时使用，输出固定的 JSON
type MockChatModel struct{}

var _ model.BaseChatModel = (*MockChatModel)(nil)

// NewMockChatModel 创建 mock 模型
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Generate implements model.BaseChatModel
func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	for _, msg := range input {
		if strings.HasPrefix(msg.Content, questionPreamble) {
			return schema.AssistantMessage(MockAnswerResponse, nil), nil
		}
	}
	return schema.AssistantMessage(MockTrendsResponse, nil), nil
}

// Stream implements model.BaseChatModel
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
