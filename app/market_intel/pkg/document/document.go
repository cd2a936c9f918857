// Package document 把搜索结果切分为带重叠的文本块
package document

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// MetaSource 块所属搜索结果在列表中的下标
	MetaSource = "source"
)

// Chunk 文本块，ID 在一次查询内唯一
type Chunk struct {
	ID      string
	Content string
	Source  int
}

// Splitter 递归字符切分器
type Splitter struct {
	splitter textsplitter.TextSplitter
}

// NewSplitter size/overlap 非正时使用默认值
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = min(DefaultChunkOverlap, size/5)
	}
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

// Split 切分文本列表，空输入返回空切片
func (s *Splitter) Split(texts []string) ([]Chunk, error) {
	if len(texts) == 0 {
		return []Chunk{}, nil
	}

	metas := make([]map[string]any, len(texts))
	for i := range texts {
		metas[i] = map[string]any{MetaSource: i}
	}

	docs, err := textsplitter.CreateDocuments(s.splitter, texts, metas)
	if err != nil {
		return nil, fmt.Errorf("split documents: %w", err)
	}
	return toChunks(docs), nil
}

func toChunks(docs []schema.Document) []Chunk {
	chunks := make([]Chunk, 0, len(docs))
	for i, d := range docs {
		src, _ := d.Metadata[MetaSource].(int)
		chunks = append(chunks, Chunk{
			ID:      fmt.Sprintf("chunk_%d", i),
			Content: d.PageContent,
			Source:  src,
		})
	}
	return chunks
}

// Contents 提取所有块的正文
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
