package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/handler"
	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
)

// RegisterPublic registers the read side.  oracleCache wraps only the
// oracle lookup, whose answer never changes once an oracle exists.
// stream may be nil.
func RegisterPublic(e *echo.Echo, h *handler.SuretyHandler, stream echo.HandlerFunc, oracleCache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/status", h.Status)
	g.GET("/operational", h.GetOperational)

	g.GET("/airlines", h.ListAirlines)
	g.GET("/airlines/:account", h.GetAirline)

	g.GET("/flights/:airline", h.ListFlights)
	g.GET("/flights/:airline/:code/:timestamp", h.GetFlight)
	g.GET("/flights/:airline/:code/:timestamp/requests/:index", h.GetStatusRequest)

	g.GET("/passengers/:account/policies", h.ListPolicies)
	g.GET("/passengers/:account/credit", h.Credit)

	if oracleCache != nil {
		g.GET("/oracles/:account", h.GetOracle, oracleCache)
	} else {
		g.GET("/oracles/:account", h.GetOracle)
	}

	g.GET("/events", h.ListEvents)
	if stream != nil {
		g.GET("/events/stream", stream)
	}
}

// RegisterAccount registers the mutating endpoints.  Every call acts as
// the bearer's account.
func RegisterAccount(e *echo.Echo, h *handler.SuretyHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleOwner, repository.RoleAccount))

	g.POST("/airlines", h.ProposeAirline)
	g.POST("/airlines/fund", h.FundAirline)
	g.POST("/airlines/:account/votes", h.VoteAirline)

	g.POST("/flights", h.RegisterFlight)
	g.POST("/flights/status-requests", h.RequestStatus)

	g.POST("/policies", h.BuyPolicy)
	g.POST("/withdrawals", h.Withdraw)
	g.GET("/payouts", h.ListPayouts)

	g.POST("/oracles", h.RegisterOracle)
	g.POST("/oracles/responses", h.SubmitResponse)
}
