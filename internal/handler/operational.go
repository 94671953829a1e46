package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *SuretyHandler) GetOperational(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"operational": h.Engine.IsEnabled()})
}

type operationalReq struct {
	Operational *bool `json:"operational"`
}

// SetOperational is the owner's pause switch.
func (h *SuretyHandler) SetOperational(c echo.Context) error {
	acc, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req operationalReq
	if err := c.Bind(&req); err != nil || req.Operational == nil {
		return badRequest(c, "operational flag required")
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Engine.SetEnabled(ctx, acc, *req.Operational); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"operational": h.Engine.IsEnabled()})
}
