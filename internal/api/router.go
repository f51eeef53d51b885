package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"garage-backend/internal/model"
	"garage-backend/internal/mw"
	"garage-backend/internal/schedule"
	"garage-backend/internal/store"
	"garage-backend/internal/workorder"
)

// RouterConfig carries the knobs the router needs from the service config.
type RouterConfig struct {
	JWTSecret string
	RateLimit rate.Limit
	RateBurst int
	CacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, coordinator *workorder.Coordinator, webpushOptions *webpush.Options, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	calendar := schedule.NewCalendar(s)
	generator := schedule.NewGenerator(calendar, s)
	checker := schedule.NewChecker(s)
	handler := NewHandler(s, coordinator, generator, checker, webpushOptions)

	rateLimiter := mw.RateLimiter(cfg.RateLimit, cfg.RateBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	auth := mw.Auth(cfg.JWTSecret)
	adminOnly := mw.RequireTypes(model.UserAdmin)
	staff := mw.RequireTypes(model.UserAdmin, model.UserEmployee)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public, cacheable reads.
		api.GET("/slots", caching, handler.GetSlots)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(auth)
		{
			authed.POST("/bookings", handler.CreateBooking)
			authed.GET("/bookings/:id", handler.GetBooking)
			authed.POST("/bookings/:id/cancel", adminOnly, handler.CancelBooking)

			authed.GET("/workorders/:id", handler.GetWorkOrder)
			authed.POST("/workorders/:id/assign", adminOnly, handler.AssignWorkOrder)
			authed.POST("/workorders/:id/reassign", adminOnly, handler.ReassignWorkOrder)
			authed.POST("/workorders/:id/accept", handler.AcceptWorkOrder)
			authed.POST("/workorders/:id/start", handler.StartWorkOrder)
			authed.POST("/workorders/:id/cancel", adminOnly, handler.CancelWorkOrder)
			authed.POST("/workorders/:id/done", staff, handler.MarkWorkOrderDone)
			authed.POST("/workorders/:id/complete", adminOnly, handler.CompleteWorkOrder)

			authed.GET("/employees/:id/availability", staff, handler.GetEmployeeAvailability)

			authed.GET("/settings", handler.GetSettings)
			authed.PUT("/settings", adminOnly, handler.PutSettings)

			authed.GET("/subscriptions", handler.GetSubscriptions)
			authed.PUT("/subscriptions", handler.PutSubscription)
			authed.DELETE("/subscriptions", handler.DeleteSubscription)
		}
	}

	return r
}
