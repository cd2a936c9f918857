package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/market_intel/app/gateway/internal/usecase"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

const (
	OperationQuery    = "/market.v1.Market/Query"
	OperationQuestion = "/market.v1.Market/Question"
	OperationGetState = "/market.v1.Market/GetState"
)

type QueryReq struct {
	Query        string `json:"query"`
	MarketDomain string `json:"market_domain"`
}

type QuestionReq struct {
	Question string `json:"question"`
	StateID  string `json:"state_id"`
}

type GetStateReq struct {
	StateID string `json:"state_id"`
}

type MarketService struct {
	uc  *usecase.MarketUseCase
	log *log.Helper
}

func NewMarketService(uc *usecase.MarketUseCase, logger log.Logger) *MarketService {
	return &MarketService{uc: uc, log: log.NewHelper(logger)}
}

func (s *MarketService) Query(ctx context.Context, req *QueryReq) (*model.QueryResponse, error) {
	return s.uc.Query(ctx, req.Query, req.MarketDomain)
}

func (s *MarketService) Question(ctx context.Context, req *QuestionReq) (*model.AnswerResponse, error) {
	return s.uc.Ask(ctx, req.Question, req.StateID)
}

func (s *MarketService) GetState(ctx context.Context, req *GetStateReq) (*model.QueryState, error) {
	return s.uc.GetState(ctx, req.StateID)
}
