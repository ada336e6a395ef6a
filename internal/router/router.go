package router

import (
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/config"
	"github.com/Yeferson-gm/test-crazy-b/internal/handler"
	"github.com/Yeferson-gm/test-crazy-b/internal/infra"
	"github.com/Yeferson-gm/test-crazy-b/internal/middleware"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"
	"github.com/Yeferson-gm/test-crazy-b/internal/service"
	"github.com/Yeferson-gm/test-crazy-b/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, fiscalCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	fiscalClient := infra.NewFiscalClient(cfg.FiscalAPIURL, cfg.FiscalAPIKey, cfg.FiscalAPISecret)
	mediaClient := infra.NewMediaClient(cfg.MediaAPIURL, cfg.MediaAPIKey)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	registerRepo := repository.NewCashRegisterRepository(db)
	paymentRepo := repository.NewPaymentRecordRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	saleSvc := service.NewSaleService(saleRepo, productRepo, customerRepo, dispatcher)
	invoicingSvc := service.NewInvoicingService(invoiceRepo, saleRepo, fiscalClient, mediaClient, fiscalCB)
	registerSvc := service.NewCashRegisterService(registerRepo, saleRepo, paymentRepo)
	scanSvc := service.NewScanService(rdb, productRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	invoicingH := handler.NewInvoicingHandler(invoicingSvc)
	registersH := handler.NewCashRegistersHandler(registerSvc)
	scanH := handler.NewScanHandler(scanSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, fiscalCB))

	// Prometheus metrics — env-gated, meant for internal scraping only
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, seller, manager, admin — declared per-endpoint
		anySeller := middleware.RequireRole("cashier", "seller", "manager", "admin")
		managers := middleware.RequireRole("manager", "admin")

		v1.POST("/sales", anySeller, salesH.CreateSale)
		v1.GET("/sales/:id", anySeller, salesH.GetSale)
		v1.POST("/sales/:id/cancel", managers, salesH.CancelSale)
		v1.GET("/sales/:id/payments", anySeller, registersH.GetSalePayments)
		v1.GET("/stores/:store_id/sales", anySeller, salesH.ListStoreSales)

		v1.POST("/invoices", anySeller, invoicingH.CreateInvoice)
		v1.GET("/invoices/:id", anySeller, invoicingH.GetInvoice)
		v1.POST("/invoices/:id/cancel", managers, invoicingH.CancelInvoice)
		v1.GET("/stores/:store_id/invoices", anySeller, invoicingH.ListStoreInvoices)

		registers := v1.Group("/cash-registers")
		{
			registers.POST("/open", anySeller, registersH.OpenRegister)
			registers.POST("/close", anySeller, registersH.CloseRegister)
			registers.GET("/:id", anySeller, registersH.GetRegister)
		}
		v1.GET("/stores/:store_id/cash-registers/current", anySeller, registersH.GetCurrentRegister)
		v1.GET("/stores/:store_id/cash-registers", managers, registersH.GetHistory)

		v1.POST("/payments", anySeller, registersH.CreatePaymentRecord)

		scan := v1.Group("/scan/sessions")
		{
			scan.POST("", anySeller, scanH.CreateSession)
			scan.GET("/:id", anySeller, scanH.GetSessionStatus)
			scan.POST("/:id/connect", anySeller, scanH.ConnectSession)
			scan.POST("/:id/scan", anySeller, scanH.SubmitScan)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
