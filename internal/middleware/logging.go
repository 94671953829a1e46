package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one entry per request.  Server errors log at error
// level, client errors at warn.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			entry := log.WithFields(logrus.Fields{
				"method":  req.Method,
				"path":    req.URL.Path,
				"route":   c.Path(),
				"status":  res.Status,
				"bytes":   res.Size,
				"latency": time.Since(start).String(),
				"ip":      c.RealIP(),
				"caller":  subject(c),
				"cache":   res.Header().Get("X-Cache"),
			})
			switch {
			case res.Status >= 500:
				entry.WithError(err).Error("http request")
			case res.Status >= 400:
				entry.Warn("http request")
			default:
				entry.Debug("http request")
			}
			return nil
		}
	}
}
