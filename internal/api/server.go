// Package api exposes the REST and WebSocket surface of the tracker
// daemon.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cchai186/commodity-price-tracker/internal/auth"
	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/quotes"
	"github.com/cchai186/commodity-price-tracker/internal/store"
	"github.com/cchai186/commodity-price-tracker/internal/websocket"
)

// Dispatcher starts manual runs and reports the active one. Satisfied by
// *pipeline.Pipeline.
type Dispatcher interface {
	Dispatch(trigger, requestedBy string) (*models.Run, error)
	Active() (string, bool)
}

// Schedule reports the next scheduled fire time. Satisfied by
// *scheduler.Scheduler.
type Schedule interface {
	Next() time.Time
}

// Options wires the API server.
type Options struct {
	Store      store.Store
	Dispatcher Dispatcher
	Schedule   Schedule // nil when the cron schedule is disabled
	Snapshot   *quotes.Snapshot
	Auth       *auth.Manager
	Hub        *websocket.Hub
	Logger     *zap.SugaredLogger
}

// Server wraps the REST API server.
type Server struct {
	handler *Handler
	router  *gin.Engine
}

// NewServer builds the router with all routes attached.
func NewServer(opts Options) *Server {
	handler := NewHandler(opts)

	router := gin.New()

	base := opts.Logger.Desugar()
	router.Use(ginzap.Ginzap(base, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(base, true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", handler.Health)

	// Run event stream.
	router.GET("/ws", websocket.HandleWebSocket(opts.Hub))

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", handler.Login)

		protected := api.Group("")
		protected.Use(opts.Auth.Middleware())
		{
			protected.POST("/runs", handler.DispatchRun)
			protected.GET("/runs", handler.ListRuns)
			protected.GET("/runs/:id", handler.GetRun)
			protected.GET("/quotes", handler.ListQuotes)
			protected.GET("/quotes/:category", handler.GetQuotes)
			protected.GET("/status", handler.GetStatus)
		}
	}

	return &Server{
		handler: handler,
		router:  router,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
