package embedding

import "context"

// MockDimension mock 向量维度
const MockDimension = 768

// MockEmbedder 每段文本都返回同一个常量向量
type MockEmbedder struct{}

func NewMockEmbedder() *MockEmbedder { return &MockEmbedder{} }

func (m *MockEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = mockVector()
	}
	return out, nil
}

func (m *MockEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return mockVector(), nil
}

func (m *MockEmbedder) ModelName() string { return "mock" }

func mockVector() []float32 {
	v := make([]float32, MockDimension)
	for i := range v {
		v[i] = 0.1
	}
	return v
}
