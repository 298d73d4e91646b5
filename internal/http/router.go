package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	intconfig "ridemate/internal/config"
	"ridemate/internal/http/handlers"
	"ridemate/internal/http/middleware"
	"ridemate/internal/observability"
)

// NewRouter wires every route group with the shared middleware chain.
func NewRouter(env intconfig.Env) *gin.Engine {
	middleware.SetJWTSecret(env.JWTSecret)

	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(observability.Middleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(env.CORSOrigins) == 0 || slices.Contains(env.CORSOrigins, "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = env.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	api := r.Group("/api")
	api.GET("/health", handlers.Health)
	api.GET("/db-check", handlers.DBCheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	trips := api.Group("/trips")
	{
		trips.GET("", handlers.SearchTrips)
		trips.GET("/search", handlers.SearchTrips)
		trips.GET("/popular-routes", handlers.GetPopularRoutes)
		trips.GET("/driver/:driverId", handlers.GetDriverTrips)
		trips.POST("", handlers.CreateTrip)
		trips.GET("/:id", handlers.GetTrip)
		trips.PUT("/:id", handlers.UpdateTrip)
		trips.DELETE("/:id", handlers.DeleteTrip)
		trips.POST("/:id/book", handlers.BookTripInline)
		trips.POST("/:id/cancel-booking", handlers.CancelTripBooking)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", handlers.CreateBooking)
		bookings.GET("/passenger/:passengerId", handlers.GetPassengerBookings)
		bookings.GET("/:id", handlers.GetBooking)
		bookings.POST("/:id/verify-otp", handlers.VerifyBookingOTP)
		bookings.POST("/:id/resend-otp", handlers.ResendBookingOTP)
		bookings.GET("/:id/e-ticket", handlers.GetBookingETicketPDF)
	}

	admin := api.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", handlers.AdminDashboard)
		admin.GET("/users", handlers.AdminListUsers)
		admin.GET("/users/:id", handlers.AdminGetUser)
		admin.PATCH("/users/:id/verify", handlers.AdminVerifyUser)
		admin.PATCH("/users/:id/deactivate", handlers.AdminDeactivateUser)
		admin.GET("/trips", handlers.AdminListTrips)
		admin.GET("/trips/:id", handlers.AdminGetTrip)
		admin.PATCH("/trips/:id/approve", handlers.AdminApproveTrip)
		admin.PATCH("/trips/:id/reject", handlers.AdminRejectTrip)
		admin.GET("/bookings", handlers.AdminListBookings)
		admin.GET("/bookings/:id", handlers.AdminGetBooking)
	}

	return r
}
