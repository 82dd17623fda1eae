package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"SwingLab/pkg/logger"
)

func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("request",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Request().URL.Path),
				logger.Int("status", c.Response().Status),
				logger.String("duration", time.Since(start).String()),
			)
			return err
		}
	}
}
