package api

import (
	"media-gateway/internal/logging"
	"media-gateway/internal/media"
	"media-gateway/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from. Jobs and Hub are
// optional; their routes are only mounted when set.
type Deps struct {
	Service *media.Service
	Jobs    JobLister
	Hub     *ws.Hub
	Limiter *RateLimiter
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(), CORS())

	h := NewMediaHandler(d.Service, d.Jobs)

	r.GET("/", h.Root)
	r.POST("/info", d.Limiter.Middleware("info"), h.Info)
	r.POST("/download", d.Limiter.Middleware("download"), h.Download)
	r.GET(filesPath+"/*filename", h.ServeFile)

	if d.Jobs != nil {
		r.GET("/jobs", h.ListJobs)
		r.GET("/jobs/:id", h.GetJob)
	}
	if d.Hub != nil {
		r.GET("/ws", gin.WrapF(d.Hub.ServeWs))
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
