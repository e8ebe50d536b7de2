package middleware

import (
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"doclib/internal/logger"
)

// Logger logs each HTTP request as one structured record.
// Fields: request_id (set by RequestID), method, path, status and latency in milliseconds.
func Logger(l *slog.Logger) fiber.Handler {
	l = logger.Component(l, "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Render errors here so the logged status is the one the client receives.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		l.LogAttrs(c.UserContext(), level, "http_request",
			slog.String("request_id", rid),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		)

		return nil
	}
}

// LoggerWithWriter is Logger writing JSON records to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewWithWriter(w, loc, slog.LevelInfo))
}
