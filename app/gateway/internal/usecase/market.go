package usecase

import (
	"context"
	"errors"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/market_intel/app/gateway/internal/repo"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/state"
)

// MarketUseCase 市场情报业务逻辑
type MarketUseCase struct {
	agent repo.MarketAgent
	log   *log.Helper
}

// NewMarketUseCase 创建业务逻辑实例
func NewMarketUseCase(agent repo.MarketAgent, logger log.Logger) *MarketUseCase {
	return &MarketUseCase{agent: agent, log: log.NewHelper(logger)}
}

// Query 发起分析，query 与 domain 均不能为空
func (uc *MarketUseCase) Query(ctx context.Context, query, domain string) (*model.QueryResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, kerrors.BadRequest("INVALID_ARGUMENT", "query is required")
	}
	if strings.TrimSpace(domain) == "" {
		return nil, kerrors.BadRequest("INVALID_ARGUMENT", "market_domain is required")
	}

	resp := uc.agent.ProcessQuery(ctx, query, domain)
	if resp.Error != "" {
		uc.log.WithContext(ctx).Warnf("query %s finished with error: %s", resp.StateID, resp.Error)
	}
	return resp, nil
}

// Ask 追问
func (uc *MarketUseCase) Ask(ctx context.Context, question, stateID string) (*model.AnswerResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, kerrors.BadRequest("INVALID_ARGUMENT", "question is required")
	}
	if strings.TrimSpace(stateID) == "" {
		return nil, kerrors.BadRequest("INVALID_ARGUMENT", "state_id is required")
	}
	return uc.agent.AnswerQuestion(ctx, question, stateID), nil
}

// GetState 读取状态，不存在时返回 404
func (uc *MarketUseCase) GetState(ctx context.Context, stateID string) (*model.QueryState, error) {
	st, err := uc.agent.State(ctx, stateID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, kerrors.NotFound("STATE_NOT_FOUND", err.Error())
		}
		return nil, err
	}
	return st, nil
}
