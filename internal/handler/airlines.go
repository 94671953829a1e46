package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

func (h *SuretyHandler) ListAirlines(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.ListAirlines())
}

func (h *SuretyHandler) GetAirline(c echo.Context) error {
	acc, err := accountParam(c, "account")
	if err != nil {
		return h.fail(c, err)
	}
	a, err := h.Engine.GetAirline(acc)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

type proposeReq struct {
	Account string `json:"account"`
	Name    string `json:"name"`
}

// ProposeAirline creates a pending candidate record.  Admission happens
// through VoteAirline.
func (h *SuretyHandler) ProposeAirline(c echo.Context) error {
	proposer, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req proposeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	candidate, err := model.ParseAccount(req.Account)
	if err != nil {
		return badRequest(c, "account: "+err.Error())
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	a, err := h.Engine.ProposeAirline(ctx, proposer, candidate, strings.TrimSpace(req.Name))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *SuretyHandler) VoteAirline(c echo.Context) error {
	voter, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	candidate, err := accountParam(c, "account")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	a, err := h.Engine.Vote(ctx, voter, candidate)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

type amountReq struct {
	AmountWei string `json:"amount_wei"`
}

// FundAirline adds stake to the caller's own airline record.
func (h *SuretyHandler) FundAirline(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	amount, err := weiField("amount_wei", req.AmountWei)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	a, err := h.Engine.Fund(ctx, acc, amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
