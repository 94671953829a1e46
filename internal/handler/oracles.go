package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

type registerOracleReq struct {
	FeeWei string `json:"fee_wei"`
}

// RegisterOracle enrolls the caller as an oracle.  The response carries the
// three assigned indexes.
func (h *SuretyHandler) RegisterOracle(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req registerOracleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	fee, err := weiField("fee_wei", req.FeeWei)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	o, err := h.Engine.RegisterOracle(ctx, acc, fee)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *SuretyHandler) GetOracle(c echo.Context) error {
	acc, err := accountParam(c, "account")
	if err != nil {
		return h.fail(c, err)
	}
	o, err := h.Engine.GetOracle(acc)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

type responseReq struct {
	flightBody
	Index      *uint8            `json:"index"`
	StatusCode *model.StatusCode `json:"status_code"`
}

// SubmitResponse records the caller's status report.
func (h *SuretyHandler) SubmitResponse(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req responseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Index == nil || req.StatusCode == nil {
		return badRequest(c, "index and status_code required")
	}
	key, err := req.key()
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rep, err := h.Engine.SubmitResponse(ctx, acc, *req.Index, key, *req.StatusCode)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
