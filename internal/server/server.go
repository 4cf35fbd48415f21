package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/audit"
	auditdomain "github.com/domaehub/settle/internal/audit/domain"
	"github.com/domaehub/settle/internal/businessday"
	"github.com/domaehub/settle/internal/catalog"
	catalogdomain "github.com/domaehub/settle/internal/catalog/domain"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/company"
	companydomain "github.com/domaehub/settle/internal/company/domain"
	"github.com/domaehub/settle/internal/config"
	"github.com/domaehub/settle/internal/inventory"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	"github.com/domaehub/settle/internal/migration"
	"github.com/domaehub/settle/internal/mileage"
	miledomain "github.com/domaehub/settle/internal/mileage/domain"
	"github.com/domaehub/settle/internal/observability"
	obsmiddleware "github.com/domaehub/settle/internal/observability/logger"
	obsmetrics "github.com/domaehub/settle/internal/observability/metrics"
	"github.com/domaehub/settle/internal/order"
	orderdomain "github.com/domaehub/settle/internal/order/domain"
	"github.com/domaehub/settle/internal/reconcile"
	"github.com/domaehub/settle/internal/sample"
	sampledomain "github.com/domaehub/settle/internal/sample/domain"
	"github.com/domaehub/settle/internal/scheduler"
	"github.com/domaehub/settle/internal/statement"
	stmtdomain "github.com/domaehub/settle/internal/statement/domain"
	"github.com/domaehub/settle/pkg/db"
	"github.com/domaehub/settle/pkg/locker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	db.Module,
	clock.Module,
	locker.Module,
	migration.Module,
	businessday.Module,
	audit.Module,
	company.Module,
	catalog.Module,
	inventory.Module,
	mileage.Module,
	order.Module,
	statement.Module,
	sample.Module,
	reconcile.Module,
	scheduler.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
	db           *gorm.DB
	genID        *snowflake.Node
	calc         *businessday.Calculator
	auditSvc     auditdomain.Service
	catalogSvc   catalogdomain.Service
	companySvc   companydomain.Service
	inventorySvc invdomain.Service
	mileageSvc   miledomain.Service
	orderSvc     orderdomain.Service
	sampleSvc    sampledomain.Service
	statementSvc stmtdomain.Service
	coordinator  *reconcile.Coordinator
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	Calc         *businessday.Calculator
	AuditSvc     auditdomain.Service
	CatalogSvc   catalogdomain.Service
	CompanySvc   companydomain.Service
	InventorySvc invdomain.Service
	MileageSvc   miledomain.Service
	OrderSvc     orderdomain.Service
	SampleSvc    sampledomain.Service
	StatementSvc stmtdomain.Service
	Coordinator  *reconcile.Coordinator
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		calc:         p.Calc,
		auditSvc:     p.AuditSvc,
		catalogSvc:   p.CatalogSvc,
		companySvc:   p.CompanySvc,
		inventorySvc: p.InventorySvc,
		mileageSvc:   p.MileageSvc,
		orderSvc:     p.OrderSvc,
		sampleSvc:    p.SampleSvc,
		statementSvc: p.StatementSvc,
		coordinator:  p.Coordinator,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/business-days/current", s.CurrentBusinessDay)

	v1.POST("/companies", s.CreateCompany)
	v1.GET("/companies/:id", s.GetCompany)

	v1.POST("/products", s.CreateProduct)
	v1.GET("/products/:id", s.GetProduct)
	v1.POST("/products/:id/options", s.AddProductOption)
	v1.GET("/variants/resolve", s.ResolveVariant)

	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/:id", s.GetOrder)
	v1.PATCH("/orders/:id/status", s.UpdateOrderStatus)
	v1.PATCH("/orders/:id/tracking", s.SetOrderTracking)
	v1.DELETE("/orders/:id", s.DeleteOrder)

	v1.POST("/inventory/adjustments", s.AdjustStock)
	v1.POST("/inventory/adjustments/bulk", s.BulkAdjustStock)
	v1.GET("/inventory/:product_id/history", s.StockHistory)
	v1.GET("/inventory/:product_id/status", s.StockStatus)

	v1.GET("/mileage/:user_id/balance", s.MileageBalance)
	v1.POST("/mileage/credits", s.CreditMileage)
	v1.POST("/mileage/debits", s.DebitMileage)
	v1.POST("/mileage/entries/:id/reverse", s.ReverseMileageEntry)

	v1.POST("/statements/returns", s.CreateReturnStatement)
	v1.POST("/statements/deductions", s.CreateDeductionStatement)
	v1.GET("/statements", s.ListStatements)
	v1.GET("/statements/:id", s.GetStatement)
	v1.PUT("/statements/:id/items", s.UpdateStatementItems)
	v1.POST("/statements/:id/reject", s.RejectStatement)
	v1.POST("/statements/:id/process", s.ProcessStatement)
	v1.DELETE("/statements/:id", s.DeleteStatement)
	v1.POST("/reconcile", s.ProcessStatementBatch)

	v1.POST("/samples", s.CheckOutSample)
	v1.POST("/samples/:id/return", s.ReturnSample)
	v1.GET("/samples", s.ListSamples)

	v1.GET("/audit-logs", s.ListAuditLogs)
}
