package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/cinebooker/cinebooker/internal/handler"
	"github.com/cinebooker/cinebooker/internal/middleware"
)

// RegisterRoutes registers routes that need neither authentication
// nor handler state. Currently only the health check used by load
// balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register,
// login, refresh and logout live under /v1/auth and need no existing
// session; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body and does not require
	// a JWT, so a client with an expired access token can still end
	// its session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout-all", a.LogoutAll)
}

// RegisterCatalog registers movie, theatre, show and seat endpoints.
// Browsing is public so guests can pick seats before logging in; the
// extra middleware (response cache) applies to the browse group only.
// Creation endpoints require an ADMIN token.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, browseMW ...echo.MiddlewareFunc) {
	browse := e.Group("/v1", browseMW...)
	browse.GET("/movies", h.ListMovies)
	browse.GET("/movies/:id/shows", h.ListShows)
	browse.GET("/theatres", h.ListTheatres)
	browse.GET("/shows/:id/seats", h.GetShowSeats)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/movies", h.CreateMovie)
	admin.POST("/theatres", h.CreateTheatre)
	admin.POST("/shows", h.CreateShow)
}

// RegisterCheckout registers the checkout flow and booking endpoints.
// Seat selection is public; everything from payment on requires a
// CUSTOMER or ADMIN token.
func RegisterCheckout(e *echo.Echo, h *handler.CheckoutHandler, jwtSecret string) {
	e.POST("/v1/checkout/seats", h.SelectSeats)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))
	auth.POST("/checkout/pay", h.Pay)
	auth.GET("/bookings", h.MyBookings)
	auth.GET("/bookings/:id", h.GetBooking)
	auth.GET("/bookings/:id/receipt", h.Receipt)
}
