package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/maziwa/internal/config"
	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
	feedrequestdomain "github.com/smallbiznis/maziwa/internal/feedrequest/domain"
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	"github.com/smallbiznis/maziwa/internal/observability"
	settlementdomain "github.com/smallbiznis/maziwa/internal/settlement/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

type ServerParams struct {
	fx.In

	Engine         *gin.Engine
	Log            *zap.Logger
	Config         config.Config
	FeedSvc        feeddomain.Service
	FeedRequestSvc feedrequestdomain.Service
	LedgerSvc      ledgerdomain.Service
	SettlementSvc  settlementdomain.Service
}

type Server struct {
	engine         *gin.Engine
	log            *zap.Logger
	cfg            config.Config
	feedSvc        feeddomain.Service
	feedRequestSvc feedrequestdomain.Service
	ledgerSvc      ledgerdomain.Service
	settlementSvc  settlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Engine,
		log:            p.Log.Named("http.server"),
		cfg:            p.Config,
		feedSvc:        p.FeedSvc,
		feedRequestSvc: p.FeedRequestSvc,
		ledgerSvc:      p.LedgerSvc,
		settlementSvc:  p.SettlementSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/feeds", s.UpsertFeed)
	api.GET("/feeds", s.ListFeeds)
	api.GET("/feeds/:id", s.GetFeed)
	api.DELETE("/feeds/:id", s.DeleteFeed)
	api.GET("/feeds/:id/stock", s.GetStockStatus)

	api.POST("/feed-requests", s.SubmitFeedRequest)
	api.GET("/feed-requests", s.ListFeedRequests)
	api.GET("/feed-requests/summary", s.FeedRequestSummary)
	api.POST("/feed-requests/:id/transition", s.TransitionFeedRequest)

	api.POST("/milk-deliveries", s.RecordMilkDelivery)
	api.GET("/transactions", s.ListTransactions)
	api.POST("/transactions/:id/mark-paid", s.MarkRevenuePaid)

	api.GET("/farmers/:id/balance", s.GetFarmerBalance)
	api.POST("/farmers/:id/settle", s.SettleFarmer)
	api.POST("/settlement/auto-apply", s.AutoApplyDeductions)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine, _ *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
