package http

import (
	"context"
	"net/http"

	handlers "github.com/Likith-Yadav/PayCoreX/internal/adapter/handler/http"
	"github.com/Likith-Yadav/PayCoreX/internal/config"
	"github.com/Likith-Yadav/PayCoreX/internal/middleware/auth"
	"github.com/Likith-Yadav/PayCoreX/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups every route handler the server mounts.
type Handlers struct {
	Payments    *handlers.PaymentHandler
	Refunds     *handlers.RefundHandler
	Wallets     *handlers.WalletHandler
	Webhooks    *handlers.WebhookHandler
	Instruments *handlers.InstrumentHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
	gatherer prometheus.Gatherer
}

// NewServer builds the echo instance. A nil gatherer leaves /metrics unmounted.
func NewServer(cfg *config.Config, zapLogger *zap.Logger, h Handlers, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(zapLogger))
	logger.WithEchoLogger(e, zapLogger)

	s := &Server{
		config:   cfg,
		logger:   zapLogger,
		echo:     e,
		handlers: h,
		gatherer: gatherer,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Addr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	if s.gatherer != nil && s.config.Metrics.Enabled {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	// Gateways call back without a merchant token
	s.echo.POST("/gateway/callback", s.handlers.Payments.GatewayCallback)

	v1 := s.echo.Group("/v1")
	v1.Use(auth.JWTMiddleware(auth.JWTConfig{
		Secret:    s.config.JWT.Secret,
		Logger:    s.logger,
		SkipPaths: s.config.JWT.SkipPaths,
	}))

	payments := v1.Group("/payments")
	payments.POST("", s.handlers.Payments.CreatePayment)
	payments.GET("", s.handlers.Payments.ListPayments)
	payments.GET("/:id", s.handlers.Payments.GetPayment)
	payments.POST("/:id/process", s.handlers.Payments.ProcessPayment)
	payments.POST("/:id/cancel", s.handlers.Payments.CancelPayment)
	payments.POST("/:id/verify", s.handlers.Payments.VerifyPayment)
	payments.POST("/:id/reference", s.handlers.Payments.SubmitReference)
	payments.POST("/:id/mark-verified", s.handlers.Payments.MarkVerified)
	payments.POST("/:id/refunds", s.handlers.Refunds.CreateRefund)
	payments.GET("/:id/refunds", s.handlers.Refunds.ListRefunds)

	v1.GET("/refunds/:id", s.handlers.Refunds.GetRefund)

	wallets := v1.Group("/wallets")
	wallets.POST("", s.handlers.Wallets.CreateWallet)
	wallets.GET("/:user_id", s.handlers.Wallets.GetWallet)
	wallets.POST("/:user_id/topup", s.handlers.Wallets.Topup)
	wallets.POST("/:user_id/pay", s.handlers.Wallets.Pay)

	ledger := v1.Group("/ledger")
	ledger.GET("/balance", s.handlers.Wallets.MerchantBalance)
	ledger.GET("/entries", s.handlers.Wallets.MerchantEntries)

	webhooks := v1.Group("/webhooks")
	webhooks.POST("/endpoints", s.handlers.Webhooks.CreateEndpoint)
	webhooks.GET("/endpoints", s.handlers.Webhooks.ListEndpoints)
	webhooks.DELETE("/endpoints/:id", s.handlers.Webhooks.DeactivateEndpoint)
	webhooks.GET("/deliveries", s.handlers.Webhooks.ListDeliveries)
	webhooks.GET("/deliveries/:id", s.handlers.Webhooks.GetDelivery)
	webhooks.POST("/deliveries/:id/retry", s.handlers.Webhooks.RetryDelivery)

	tokens := v1.Group("/tokens")
	tokens.POST("", s.handlers.Instruments.StoreToken)
	tokens.GET("", s.handlers.Instruments.ListTokens)
	tokens.DELETE("/:id", s.handlers.Instruments.DeleteToken)

	crypto := v1.Group("/crypto")
	crypto.POST("/addresses", s.handlers.Instruments.RegisterAddress)
	crypto.GET("/addresses", s.handlers.Instruments.ListAddresses)
	crypto.GET("/status/:tx", s.handlers.Instruments.TransactionStatus)

	configs := v1.Group("/configs")
	configs.POST("", s.handlers.Instruments.CreateConfig)
	configs.GET("", s.handlers.Instruments.ListConfigs)
	configs.POST("/:id/verify", s.handlers.Instruments.VerifyConfig)
	configs.DELETE("/:id", s.handlers.Instruments.DeactivateConfig)
}
