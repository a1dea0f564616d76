package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a backing dependency is usable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Events   *EventHandler
	Tickets  *TicketHandler
	Bookings *BookingHandler
	Users    *UserHandler
	// Health checks keyed by dependency name, reported by /health.
	Health map[string]HealthCheck
}

func InitRoutes(h Handlers, resolver middleware.CallerResolver, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.Identity(resolver))
	router.Use(middleware.Logger())

	api := router.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("", h.Users.RegisterUser)
			users.GET("/:id", requireCaller, h.Users.GetUser)
		}

		events := api.Group("/events")
		{
			events.POST("", h.Events.CreateEvent)
			events.GET("", requireCaller, h.Events.GetAllEvents)
			events.GET("/:id", requireCaller, h.Events.GetEvent)
			events.PUT("/:id", h.Events.UpdateEvent)
			events.DELETE("/:id", h.Events.DeleteEvent)
			events.GET("/:id/tickets", requireCaller, h.Events.GetEventTickets)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.Tickets.CreateTicket)
			tickets.GET("/:id", requireCaller, h.Tickets.GetTicket)
			tickets.PATCH("/:id", h.Tickets.UpdateTicket)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.Bookings.CreateBooking)
			bookings.GET("", h.Bookings.GetBookings)
			bookings.GET("/:id", h.Bookings.GetBooking)
			bookings.PATCH("/:id/cancel", h.Bookings.CancelBooking)
		}
	}

	router.GET("/health", health(h.Health))

	return router
}

// requireCaller guards read routes that any registered user may use.
func requireCaller(c *gin.Context) {
	if !middleware.Caller(c).Recognized() {
		respondError(c, entity.ErrNotAValidUser)
		return
	}
	c.Next()
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				results[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status": status,
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
