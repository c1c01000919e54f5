package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tillpoint/internal/auth"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/authorization"
	"github.com/smallbiznis/tillpoint/internal/bill"
	billdomain "github.com/smallbiznis/tillpoint/internal/bill/domain"
	"github.com/smallbiznis/tillpoint/internal/catalog"
	catalogdomain "github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/counter"
	counterdomain "github.com/smallbiznis/tillpoint/internal/counter/domain"
	"github.com/smallbiznis/tillpoint/internal/customer"
	customerdomain "github.com/smallbiznis/tillpoint/internal/customer/domain"
	"github.com/smallbiznis/tillpoint/internal/fallback"
	obslogger "github.com/smallbiznis/tillpoint/internal/observability/logger"
	obstracing "github.com/smallbiznis/tillpoint/internal/observability/tracing"
	"github.com/smallbiznis/tillpoint/internal/providers/pdf"
	"github.com/smallbiznis/tillpoint/internal/ratelimit"
	"github.com/smallbiznis/tillpoint/internal/sequence"
	sequencedomain "github.com/smallbiznis/tillpoint/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	fallback.Module,
	catalog.Module,
	sequence.Module,
	bill.Module,
	counter.Module,
	customer.Module,
	ratelimit.Module,
	pdf.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
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

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	authsvc      authdomain.Service
	authz        *authorization.Authorizer
	billSvc      billdomain.Service
	sequenceSvc  sequencedomain.Service
	counterSvc   counterdomain.Service
	catalogSvc   catalogdomain.Service
	customerSvc  customerdomain.Service
	receipts     *pdf.Renderer
	loginLimiter *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Authsvc      authdomain.Service
	Authz        *authorization.Authorizer
	BillSvc      billdomain.Service
	SequenceSvc  sequencedomain.Service
	CounterSvc   counterdomain.Service
	CatalogSvc   catalogdomain.Service
	CustomerSvc  customerdomain.Service
	Receipts     *pdf.Renderer
	LoginLimiter *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		authsvc:      p.Authsvc,
		authz:        p.Authz,
		billSvc:      p.BillSvc,
		sequenceSvc:  p.SequenceSvc,
		counterSvc:   p.CounterSvc,
		catalogSvc:   p.CatalogSvc,
		customerSvc:  p.CustomerSvc,
		receipts:     p.Receipts,
		loginLimiter: p.LoginLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/login", s.LoginRateLimit(), s.Login)

	authed := api.Group("", s.AuthRequired())

	authed.GET("/me", s.Me)
	authed.GET("/users", s.RequireManager(authorization.ActionRead), s.ListUsers)
	authed.POST("/users", s.RequireManager(authorization.ActionWrite), s.CreateUser)

	// -------- Bill numbers --------
	authed.POST("/billno/next", s.NextBillNo)
	authed.GET("/billno/check", s.CheckBillNo)
	authed.POST("/billno/settle", s.SettleBillNo)

	// -------- Carts and holds --------
	authed.POST("/cart/sync", s.SyncCart)
	authed.POST("/hold", s.HoldBill)
	authed.GET("/hold", s.ListHeldBills)
	authed.GET("/hold/:billNo", s.GetHeldBill)
	authed.DELETE("/hold/:billNo", s.RetrieveHeldBill)
	authed.POST("/pay", s.PayBill)
	authed.GET("/bills/:billNo/receipt", s.BillReceipt)

	// -------- Counter sessions --------
	authed.GET("/counter/session/status", s.CounterSessionStatus)
	authed.POST("/counter/session/open", s.OpenCounterSession)
	authed.POST("/counter/session/close", s.CloseCounterSession)
	authed.GET("/counters", s.ListCounters)
	authed.GET("/counters/next-code", s.NextCounterCode)

	// -------- Reference reads --------
	authed.GET("/products", s.ListProducts)
	authed.GET("/products/lookup", s.LookupProduct)
	authed.GET("/customers", s.ListCustomers)
}
