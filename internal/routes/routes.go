package routes

import (
	"io/fs"

	"ducktorrents/internal/handlers"
	"ducktorrents/internal/middleware"
	"ducktorrents/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the origin server routes to.
type Deps struct {
	Site        fs.FS
	SnapshotDir string
	Hub         *realtime.Hub
}

func SetupRoutes(deps Deps) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (the client may be pointed at another origin)
	ginRouter.Use(middleware.CORS(), middleware.ReadOnly())

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "DuckTorrents origin is running",
			"clients": deps.Hub.Count(),
		})
	})

	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Snapshot events for connected clients
	ginRouter.GET("/ws", handlers.WebSocketHandler(deps.Hub))

	api := ginRouter.Group("/api")
	{
		api.GET("/snapshot", handlers.ListSnapshots(deps.SnapshotDir))
	}

	// Everything else is the static site or a snapshot file
	ginRouter.NoRoute(handlers.SiteHandler(deps.Site, deps.SnapshotDir))

	return ginRouter
}
