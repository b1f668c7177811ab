package controllers

import (
	"net/http"

	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tindahan-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports degraded dependencies without failing the probe for
// redis: the register keeps working off the database alone.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tindahan-Env", cfg.App.Env)
		checks := map[string]string{"db": "ok", "redis": "ok"}
		status := http.StatusOK

		if dbP == nil {
			checks["db"] = "not configured"
			status = http.StatusServiceUnavailable
		} else if err := dbP.Ping(r.Context()); err != nil {
			logg.Error(r.Context(), "db readiness check failed", err)
			checks["db"] = "unreachable"
			status = http.StatusServiceUnavailable
		}

		if redisP == nil {
			checks["redis"] = "not configured"
		} else if err := redisP.Ping(r.Context()); err != nil {
			logg.Error(r.Context(), "redis readiness check failed", err)
			checks["redis"] = "degraded"
		}

		responses.WriteSuccessStatus(w, status, checks)
	}
}
