package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillpoint-api/internal/config"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/handler"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/middleware"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"github.com/sangkips/tillpoint-api/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	Shift      *handler.ShiftHandler
	Terminal   *handler.TerminalHandler
	Sales      *handler.SalesHandler
	Settlement *handler.SettlementHandler
	Printer    *handler.PrinterHandler
	Health     *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Metrics         *metrics.Metrics
	Log             *zap.Logger
	// Done stops the rate limiter's cleanup loop.
	Done <-chan struct{}
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)
	if deps.Cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFor(deps.Cfg.RateLimit.Requests, deps.Cfg.RateLimit.Duration),
		deps.Done,
	)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes, limited per client IP
		auth := v1.Group("/auth")
		auth.Use(rateLimiter.Middleware())
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// Protected routes, limited per cashier
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	till := protected.Group("")
	till.Use(middleware.RequireBranch())

	registerShiftRoutes(till, h)
	registerTerminalRoutes(till, h, deps)
	registerSalesRoutes(till, h, deps)
	registerSettlementRoutes(till, h, deps)
	registerPrinterRoutes(till, h)
}

func registerShiftRoutes(rg *gin.RouterGroup, h *Handlers) {
	shifts := rg.Group("/shifts")
	shifts.Use(middleware.RequirePermission(entity.PermissionSell))
	{
		shifts.POST("/open", h.Shift.Open)
		shifts.GET("/current", h.Shift.Current)
		shifts.POST("/break/start", h.Shift.StartBreak)
		shifts.POST("/break/end", h.Shift.EndBreak)
	}
}

func registerTerminalRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	terminal := rg.Group("/terminal")
	terminal.Use(middleware.RequirePermission(entity.PermissionSell))
	terminal.Use(middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		Log:  deps.Log,
	}))
	{
		terminal.GET("", h.Terminal.Get)

		terminal.POST("/items", h.Terminal.AddItem)
		terminal.DELETE("/items/:kind/:id", h.Terminal.RemoveItem)
		terminal.PUT("/items/:kind/:id/quantity", h.Terminal.SetQuantity)
		terminal.POST("/items/:kind/:id/void", h.Terminal.ToggleVoid)
		terminal.POST("/items/:kind/:id/discount", h.Terminal.ApplyItemDiscount)
		terminal.DELETE("/items/:kind/:id/discount", h.Terminal.ClearItemDiscount)

		terminal.POST("/discount", h.Terminal.ApplyOrderDiscount)
		terminal.DELETE("/discount", h.Terminal.RemoveOrderDiscount)
		terminal.POST("/clear", h.Terminal.Clear)

		terminal.POST("/tender/cash", h.Terminal.AddCash)
		terminal.POST("/tender/exact", h.Terminal.ExactAmount)
		terminal.POST("/tender/clear", h.Terminal.ClearTender)
		terminal.POST("/tender/cashless", h.Terminal.PayCashless)
		terminal.POST("/tender/cancel", h.Terminal.CancelPayment)

		terminal.POST("/finalize", h.Terminal.Finalize)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	sales := rg.Group("/sales")
	sales.Use(middleware.RequirePermission(entity.PermissionSell))
	{
		sales.GET("", h.Sales.List)
		sales.GET("/:invoice", h.Sales.Get)
		sales.POST("/:invoice/reprint", h.Sales.Reprint)
		sales.POST("/:invoice/refund",
			middleware.RequirePermission(entity.PermissionRefund),
			middleware.Idempotency(middleware.IdempotencyConfig{
				Repo:     deps.IdempotencyRepo,
				Log:      deps.Log,
				Required: true,
			}),
			h.Sales.Refund,
		)
	}
}

func registerSettlementRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	settlement := rg.Group("/settlement")
	{
		settlement.GET("/preview", middleware.RequirePermission(entity.PermissionSettlementView), h.Settlement.Preview)
		settlement.GET("/last", middleware.RequirePermission(entity.PermissionSettlementView), h.Settlement.Last)
		settlement.POST("/confirm",
			middleware.RequirePermission(entity.PermissionSettlementConfirm),
			middleware.Idempotency(middleware.IdempotencyConfig{
				Repo:     deps.IdempotencyRepo,
				Log:      deps.Log,
				Required: true,
			}),
			h.Settlement.Confirm,
		)
		settlement.POST("/print", middleware.RequirePermission(entity.PermissionSettlementConfirm), h.Settlement.RetryPrint)
	}
}

func registerPrinterRoutes(rg *gin.RouterGroup, h *Handlers) {
	printer := rg.Group("/printer")
	printer.Use(middleware.RequirePermission(entity.PermissionPrinter))
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
	}
}
