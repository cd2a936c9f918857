package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/market_intel/app/gateway/internal/conf"
	"github.com/iWorld-y/market_intel/app/gateway/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.MarketService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.Logger(logger),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
	}

	srv := http.NewServer(opts...)
	RegisterMarketHTTPServer(srv, s)
	return srv
}

// RegisterMarketHTTPServer 注册市场情报接口
func RegisterMarketHTTPServer(srv *http.Server, s *service.MarketService) {
	r := srv.Route("/")
	r.POST("/v1/market/query", marketQueryHandler(s))
	r.POST("/v1/market/question", marketQuestionHandler(s))
	r.GET("/v1/market/states/{state_id}", marketGetStateHandler(s))
}

func marketQueryHandler(s *service.MarketService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.QueryReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, service.OperationQuery)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Query(ctx, req.(*service.QueryReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func marketQuestionHandler(s *service.MarketService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.QuestionReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, service.OperationQuestion)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Question(ctx, req.(*service.QuestionReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func marketGetStateHandler(s *service.MarketService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := service.GetStateReq{StateID: ctx.Vars().Get("state_id")}
		http.SetOperation(ctx, service.OperationGetState)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.GetState(ctx, req.(*service.GetStateReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
