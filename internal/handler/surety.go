package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// Journal reads the persisted event log.
type Journal interface {
	ListSince(ctx context.Context, seq uint64, limit int) ([]surety.Event, error)
}

// PayoutHistory lists executed withdrawals.
type PayoutHistory interface {
	ListByAccount(ctx context.Context, account model.Account) ([]repository.Payout, error)
}

// SuretyHandler exposes the engine over HTTP.  Mutating endpoints act on
// behalf of the authenticated account.
type SuretyHandler struct {
	Engine  *surety.Engine
	Journal Journal       // nil disables GET /v1/events
	Payouts PayoutHistory // nil disables GET /v1/payouts
	Log     logrus.FieldLogger
}

func NewSuretyHandler(e *surety.Engine, j Journal, p PayoutHistory, log logrus.FieldLogger) *SuretyHandler {
	return &SuretyHandler{Engine: e, Journal: j, Payouts: p, Log: log}
}

const requestTimeout = 5 * time.Second

// caller returns the authenticated account.  JWTAuth guarantees it on
// protected routes.
func caller(c echo.Context) (model.Account, error) {
	acc, ok := middleware.Account(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return acc, nil
}

func accountParam(c echo.Context, name string) (model.Account, error) {
	acc, err := model.ParseAccount(c.Param(name))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, name+": "+err.Error())
	}
	return acc, nil
}

// flightParam reads /:airline/:code/:timestamp.
func flightParam(c echo.Context) (model.FlightKey, error) {
	airline, err := accountParam(c, "airline")
	if err != nil {
		return model.FlightKey{}, err
	}
	ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil {
		return model.FlightKey{}, echo.NewHTTPError(http.StatusBadRequest, "timestamp must be unix seconds")
	}
	return model.FlightKey{Airline: airline, Code: c.Param("code"), Timestamp: ts}, nil
}

// flightBody is the flight reference carried in request bodies.
type flightBody struct {
	Airline   string `json:"airline"`
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`
}

func (b flightBody) key() (model.FlightKey, error) {
	airline, err := model.ParseAccount(b.Airline)
	if err != nil {
		return model.FlightKey{}, echo.NewHTTPError(http.StatusBadRequest, "airline: "+err.Error())
	}
	code := strings.TrimSpace(b.Flight)
	if code == "" {
		return model.FlightKey{}, echo.NewHTTPError(http.StatusBadRequest, "flight required")
	}
	return model.FlightKey{Airline: airline, Code: code, Timestamp: b.Timestamp}, nil
}

func weiField(name, raw string) (decimal.Decimal, error) {
	v, err := model.ParseWei(raw)
	if err != nil {
		return decimal.Zero, echo.NewHTTPError(http.StatusBadRequest, name+": "+err.Error())
	}
	return v, nil
}

// fail writes err, passing echo errors through unchanged.
func (h *SuretyHandler) fail(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return c.JSON(he.Code, echo.Map{"error": he.Message})
	}
	return writeError(c, h.Log, err)
}

func (h *SuretyHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// Status summarizes the engine: operational flag, transition count,
// registry size and value totals.
func (h *SuretyHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"operational":         h.Engine.IsEnabled(),
		"seq":                 h.Engine.Seq(),
		"registered_airlines": h.Engine.RegisteredAirlines(),
		"treasury":            h.Engine.Treasury(),
	})
}
