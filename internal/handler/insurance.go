package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

type buyReq struct {
	flightBody
	PremiumWei string `json:"premium_wei"`
}

// BuyPolicy insures the caller on a flight, topping up an existing policy.
func (h *SuretyHandler) BuyPolicy(c echo.Context) error {
	passenger, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req buyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	key, err := req.key()
	if err != nil {
		return h.fail(c, err)
	}
	premium, err := weiField("premium_wei", req.PremiumWei)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.Engine.Buy(ctx, passenger, key, premium)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *SuretyHandler) ListPolicies(c echo.Context) error {
	acc, err := accountParam(c, "account")
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.Engine.ListPolicies(acc))
}

type creditResp struct {
	Account    model.Account `json:"account"`
	BalanceWei string        `json:"balance_wei"`
	Ether      string        `json:"ether"`
}

func (h *SuretyHandler) Credit(c echo.Context) error {
	acc, err := accountParam(c, "account")
	if err != nil {
		return h.fail(c, err)
	}
	bal := h.Engine.Balance(acc)
	return c.JSON(http.StatusOK, creditResp{Account: acc, BalanceWei: bal.String(), Ether: model.FormatEther(bal)})
}

// Withdraw pays out the caller's whole credited balance.
func (h *SuretyHandler) Withdraw(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	amount, err := h.Engine.Withdraw(ctx, acc)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account":    acc,
		"amount_wei": amount.String(),
		"ether":      model.FormatEther(amount),
	})
}

// ListPayouts returns the caller's executed transfers.
func (h *SuretyHandler) ListPayouts(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if h.Payouts == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payout history unavailable"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.Payouts.ListByAccount(ctx, acc)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
