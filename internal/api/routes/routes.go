package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/api/handlers"
	"github.com/gocomet/ride-booking/internal/api/middleware"
	"github.com/gocomet/ride-booking/internal/config"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/pkg/monitoring"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, users user.Repository, cors config.CORSConfig, nrApp *monitoring.NewRelicApp) {
	// Add New Relic middleware if enabled
	if nrApp.IsEnabled() {
		r.Use(nrgin.Middleware(nrApp.Application))
	}
	r.Use(middleware.CORS(cors))

	r.GET("/health", h.Health)

	staff := middleware.RequireRoles(user.RoleAdmin, user.RoleDeveloper)
	authenticate := middleware.Authenticate(h.Verifier, h.Logger)

	api := r.Group("/api")
	{
		// token travels in the query string
		api.GET("/ws", h.HandleWebSocket)

		// first contact creates the account, so no stored user is required yet
		api.POST("/users", authenticate, h.SyncUser)

		authed := api.Group("", authenticate, middleware.LoadActor(users, h.Logger))

		rides := authed.Group("/rides")
		{
			rides.POST("", h.CreateRide)
			rides.GET("/my-rides", h.MyRides)
			rides.GET("/all", staff, h.AllRides)
			rides.GET("/metrics", staff, h.DashboardMetrics)
			rides.GET("/completed", h.CompletedRides)
			rides.GET("/driver-rides", middleware.RequireRoles(user.RoleDriver), h.DriverRides)
			rides.PUT("/:rideId/assign-driver", staff, h.AssignDriver)
			rides.PUT("/:rideId/remove-driver", staff, h.RemoveDriver)
			rides.PUT("/:rideId/status", h.UpdateRideStatus)
			rides.DELETE("/:rideId", h.DeleteRide)
		}

		accounts := authed.Group("/users")
		{
			accounts.GET("/profile", h.Profile)
			accounts.PUT("/:uid/roles", staff, h.SetRoles)
			accounts.GET("/drivers", staff, h.ListDrivers)
			accounts.GET("/driver-info", middleware.RequireRoles(user.RoleDriver), h.DriverInfo)
			accounts.PUT("/driver-info", middleware.RequireRoles(user.RoleDriver), h.UpdateDriverInfo)
			accounts.PUT("/drivers/:driverId/availability", h.SetDriverAvailability)
			accounts.DELETE("/drivers/:driverId", staff, h.DeleteDriver)
		}
	}
}
