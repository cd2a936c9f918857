package repo

import (
	"context"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

// MarketAgent 市场情报引擎接口
type MarketAgent interface {
	// ProcessQuery 执行一次完整分析，失败信息在返回结构的 Error 中
	ProcessQuery(ctx context.Context, query, domain string) *model.QueryResponse
	// AnswerQuestion 基于已保存的分析追问
	AnswerQuestion(ctx context.Context, question, stateID string) *model.AnswerResponse
	// State 读取已保存的查询状态
	State(ctx context.Context, stateID string) (*model.QueryState, error)
}
