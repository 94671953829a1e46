package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type registerFlightReq struct {
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`
}

// RegisterFlight registers a flight operated by the calling airline.
func (h *SuretyHandler) RegisterFlight(c echo.Context) error {
	airline, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req registerFlightReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	f, err := h.Engine.RegisterFlight(ctx, airline, req.Flight, req.Timestamp)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *SuretyHandler) ListFlights(c echo.Context) error {
	airline, err := accountParam(c, "airline")
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.Engine.ListFlights(airline))
}

func (h *SuretyHandler) GetFlight(c echo.Context) error {
	key, err := flightParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	f, err := h.Engine.GetFlight(key)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// RequestStatus opens (or joins) the status request for a flight.
func (h *SuretyHandler) RequestStatus(c echo.Context) error {
	requester, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req flightBody
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	key, err := req.key()
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sr, err := h.Engine.RequestStatus(ctx, requester, key)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusAccepted, sr)
}

func (h *SuretyHandler) GetStatusRequest(c echo.Context) error {
	key, err := flightParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	idx, err := strconv.ParseUint(c.Param("index"), 10, 8)
	if err != nil {
		return badRequest(c, "index must be 0-255")
	}
	sr, err := h.Engine.GetStatusRequest(key, uint8(idx))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sr)
}
