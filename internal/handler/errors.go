package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// statusOf maps an engine error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, surety.ErrSystemDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, surety.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, surety.ErrAlreadyExists),
		errors.Is(err, surety.ErrFlightClosed),
		errors.Is(err, surety.ErrNothingToWithdraw):
		return http.StatusConflict
	case errors.Is(err, surety.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, surety.ErrInvalidAmount), errors.Is(err, surety.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}.  Internal failures are logged
// and their detail is not sent to the client.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
