package main

import (
	"database/sql"
	"net/http"
	"time"

	"weeklychef/internal/httpapi"
	"weeklychef/internal/metrics"
	"weeklychef/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerPublicRoutes mounts the unauthenticated operational endpoints.
func registerPublicRoutes(r *gin.Engine, db *sql.DB, rdb *redis.Client, m *metrics.Metrics) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if rdb != nil {
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

// registerAPIRoutes mounts /api/v1. identity resolves the caller for every
// route; each handler asks the permission engine itself.
func registerAPIRoutes(r *gin.Engine, identity gin.HandlerFunc, h httpapi.Handlers) {
	v1 := r.Group("/api/v1")
	v1.Use(identity)
	httpapi.Mount(v1, h)
}
