package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/api/handlers"
	"github.com/Urdemonlord/atlasproject/internal/api/middleware"
	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/email"
	"github.com/Urdemonlord/atlasproject/internal/logging"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/services"
)

// Services are the application services the public API is built on.
type Services struct {
	Users     services.IUserService
	Property  services.IPropertyService
	Booking   services.IBookingService
	Dashboard services.IDashboardService
}

// SetupRouter configures and returns the main Gin engine. ctx bounds the
// rate limiter's background cleanup.
func SetupRouter(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, svc Services) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(logging.RequestLogger(log), gin.Recovery())

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg, log)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigins))
	r.Use(rateLimiter.Limit())

	jsonApiHandler := handlers.NewJsonApiHandler(cfg, log, svc.Users, svc.Property, svc.Booking, svc.Dashboard)
	restPropertyHandler := handlers.NewRestPropertyHandler(svc.Property, log)
	restBookingHandler := handlers.NewRestBookingHandler(svc.Booking, log)
	restDashboardHandler := handlers.NewRestDashboardHandler(svc.Dashboard, svc.Property, svc.Booking, log)
	restUserHandler := handlers.NewRestUserHandler(svc.Users, svc.Property, log)

	v1 := r.Group("/v1")
	{
		v1.POST("/api", jsonApiHandler.HandleRequest)
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		public := v1.Group("/")
		public.Use(middleware.OptionalAuthMiddleware(cfg.JwtSecret))
		{
			public.GET("/properties", restPropertyHandler.SearchProperties)
			public.GET("/properties/:id", restPropertyHandler.GetPropertyByID)
			public.GET("/users/:id", restUserHandler.GetUserByID)
			public.GET("/users/:id/properties", restPropertyHandler.ListUserProperties)
		}

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/bookings", restBookingHandler.ListBookings)
			authRequired.POST("/bookings", restBookingHandler.CreateBooking)
			authRequired.PATCH("/bookings/:id/status", restBookingHandler.UpdateBookingStatus)
			authRequired.GET("/dashboard", middleware.RoleMiddleware(models.RoleOwner), restDashboardHandler.GetDashboard)
		}
	}

	return r
}

// MockEmailStore is the part of a Redis client getTestEmail reads from.
type MockEmailStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SetupServiceRouter configures the internal service engine. rdb may be nil,
// in which case getTestEmail reports that mock emails are not captured.
func SetupServiceRouter(log logrus.FieldLogger, rdb MockEmailStore, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestLogger(log), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn("shutdown channel already signaled")
			}
		case "getTestEmail":
			getTestEmail(c, log, rdb, req.Arguments)
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail polls briefly for the mock email stored for ["tag", "email"]
// and deletes it once read.
func getTestEmail(c *gin.Context, log logrus.FieldLogger, rdb MockEmailStore, rawArgs json.RawMessage) {
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Mock email capture needs Redis"})
		return
	}
	var args []string
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [tag, email]"})
		return
	}
	redisKey := email.MockEmailKey(args[1], args[0])

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var raw string
	found := false
	for i := 0; i < 10; i++ {
		var err error
		raw, err = rdb.Get(ctx, redisKey).Result()
		if err == nil {
			found = true
			rdb.Del(ctx, redisKey)
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", redisKey).Error("service API failed to read mock email")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
		return
	}

	var stored email.StoredEmail
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.WithError(err).WithField("key", redisKey).Error("service API failed to parse mock email")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
}
