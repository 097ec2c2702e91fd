// Package statusserver exposes the agent's live state over HTTP for
// supervisors that poll instead of scraping stdout.
package statusserver

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/bunshin-agent/internal/agent"
)

// StartOpts holds configuration for the status server.
type StartOpts struct {
	Session *agent.Session
	Log     *agent.Logger
	Port    int
}

// Start launches the status HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Session == nil {
		return fmt.Errorf("statusserver: session is required")
	}
	if opts.Port <= 0 {
		return fmt.Errorf("statusserver: port is required")
	}

	router := NewRouter(opts.Session)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Log != nil {
		opts.Log.Infof("Status server listening on :%d", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("statusserver: %w", err)
	}
	return nil
}

// NewRouter builds the status API router.
func NewRouter(s *agent.Session) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handleHealthz())
	router.GET("/status", handleStatus(s))
	return router
}

func handleHealthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleStatus(s *agent.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"agent_id":       s.AgentID,
			"agent_name":     s.AgentName,
			"model":          s.Model,
			"session_id":     s.SessionID,
			"pid":            os.Getpid(),
			"uptime_seconds": s.Uptime().Seconds(),
			"commands":       s.CommandCount(),
		})
	}
}
