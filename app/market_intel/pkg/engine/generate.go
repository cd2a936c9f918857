package engine

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/embedding"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/vectorstore"
)

// generate 限流后调用模型，返回文本内容
func (e *Engine) generate(ctx context.Context, messages []*schema.Message) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := e.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return resp.Content, nil
}

func vectorstoreFromChunks(ctx context.Context, stateID string, chunks []document.Chunk, emb embedding.Embedder) (*vectorstore.Collection, error) {
	c, err := vectorstore.FromChunks(ctx, vectorstore.CollectionName(stateID), chunks, emb)
	if err != nil {
		return nil, fmt.Errorf("build vector collection: %w", err)
	}
	return c, nil
}
