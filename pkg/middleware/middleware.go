package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	mw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const DefaultMaxWorkers = 10

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return mw.RateLimiter(mw.NewRateLimiterMemoryStore(rps))
}

// WorkerPool caps the number of requests handled at once. A request that
// gives up while waiting for a slot gets 503.
func WorkerPool(size int64) echo.MiddlewareFunc {
	if size <= 0 {
		size = DefaultMaxWorkers
	}
	sem := semaphore.NewWeighted(size)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := sem.Acquire(c.Request().Context(), 1); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "server is busy")
			}
			defer sem.Release(1)
			return next(c)
		}
	}
}

func RequestLoggerConfig(log *zap.Logger) mw.RequestLoggerConfig {
	log = log.Named("echo")
	return mw.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v mw.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case v.Error != nil:
				level = zapcore.WarnLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
}
