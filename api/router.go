package api

import (
	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth          *AuthHandler
	Tours         *TourHandler
	Bookings      *BookingHandler
	Notifications *NotificationHandler
	Dashboard     *DashboardHandler
}

// NewRouter builds the /api engine with the shared middleware chain.
func NewRouter(cfg config.HTTPConfig, logger *zap.Logger, tokens TokenValidator, h Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), Recovery(logger), Logger(logger), CORS(cfg.AllowedOrigins), BodyLimit(cfg.MaxBodyBytes))

	authn := Authenticate(tokens)
	api := engine.Group("/api")

	h.Auth.Register(api.Group("/auth", RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst)), authn)
	h.Tours.Register(api.Group("/tours"))
	h.Bookings.Register(api.Group("/booking", authn))
	h.Notifications.Register(api.Group("/notifications", authn))
	h.Dashboard.Register(api.Group("/adminDashboard", authn, RequireRole(domain.RoleAdmin)))

	return engine
}
