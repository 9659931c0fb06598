// Package httpapi serves afford runs over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hoangvvo/afford-agent/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

type RouterConfig struct {
	// CORSOrigins defaults to local development origins when empty.
	CORSOrigins []string
	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
	Logger     *slog.Logger
}

func SetupRouter(runner Runner, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = defaultCORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id", "Mcp-Protocol-Version"}
	router.Use(cors.New(corsConfig))

	runHandler := NewRunHandler(runner, logger)

	api := router.Group("/api")
	{
		api.POST("/runs", runHandler.CreateRun)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.MCPHandler != nil {
		router.Any("/mcp", gin.WrapH(cfg.MCPHandler))
	}

	return router
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
