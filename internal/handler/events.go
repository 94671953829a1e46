package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultEventPage = 100
	maxEventPage     = 1000
)

// ListEvents pages through the journal: ?since=<seq>&limit=<n> returns
// events with a larger seq, oldest first.
func (h *SuretyHandler) ListEvents(c echo.Context) error {
	if h.Journal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "event journal unavailable"})
	}
	var since uint64
	if s := c.QueryParam("since"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(c, "since must be a sequence number")
		}
		since = v
	}
	limit := defaultEventPage
	if s := c.QueryParam("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return badRequest(c, "limit must be positive")
		}
		limit = min(v, maxEventPage)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	evs, err := h.Journal.ListSince(ctx, since, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, evs)
}
