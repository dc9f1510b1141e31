// Package router wires the HTTP routes onto a gin engine.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/loaddesk/loaddesk/internal/docqa/handler"
)

// Register mounts all routes.
func Register(engine *gin.Engine, h *handler.Handler) {
	engine.GET("/ping", h.Ping)
	engine.GET("/metrics", h.Metrics)

	v1 := engine.Group("/api/v1/docqa")
	{
		v1.POST("/upload", h.Upload)
		v1.POST("/ask", h.Ask)
		v1.POST("/extract", h.Extract)
		v1.GET("/stats", h.Stats)
	}
}
