package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jmcadam/authflow"
)

// RouterConfig tunes the HTTP surface. Zero limiter budgets disable the
// corresponding throttle.
type RouterConfig struct {
	Logger *zap.Logger

	// GlobalRequests caps all API traffic per client IP per window.
	GlobalRequests int
	// AuthRequests caps the credential-guessing surface (login,
	// forgot-password) per client IP per window.
	AuthRequests int
	Window       time.Duration
}

// DefaultRouterConfig mirrors production throttling: 100 requests per 15
// minutes overall and 5 per 15 minutes on credential endpoints.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		GlobalRequests: 100,
		AuthRequests:   5,
		Window:         15 * time.Minute,
	}
}

// NewRouter wires routes and middleware around the handler.
func NewRouter(handler *Handler, service *authflow.Service, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ClientIPContext())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(NewRateLimiter(cfg.GlobalRequests, cfg.Window).Handler())

	authLimiter := NewRateLimiter(cfg.AuthRequests, cfg.Window).Handler()

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handler.Register)
			auth.POST("/login", authLimiter, handler.Login)
			auth.GET("/verify-email/:token", handler.VerifyEmail)
			auth.POST("/resend-verification", handler.ResendVerification)
			auth.POST("/forgot-password", authLimiter, handler.ForgotPassword)
			auth.POST("/reset-password/:token", handler.ResetPassword)
		}

		user := api.Group("/user")
		user.Use(RequireAuth(service))
		{
			user.GET("/dashboard", handler.Dashboard)
		}
	}

	r.NoRoute(handler.NotFound)
	return r
}
