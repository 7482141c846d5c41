package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
)

const healthPingTimeout = 5 * time.Second

// PoolStats reports connection pool gauges for the database health endpoint.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

func poolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// HealthHandler reports database reachability plus pool statistics. The
// route is public, so the driver error stays in the server log and the
// client only learns that the database is unreachable.
func HealthHandler(pool *pgxpool.Pool, logger zerolog.Logger) pipeline.HandlerFunc {
	return func(c echo.Context) (any, error) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("database health check failed")
			return nil, pipeline.NewError(http.StatusServiceUnavailable, "database unreachable")
		}
		return poolStats(pool), nil
	}
}
