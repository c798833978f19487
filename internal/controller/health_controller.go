package controller

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wellbeing_dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Pinger is one dependency checked by the health endpoint.
type Pinger func(ctx context.Context) error

type HealthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks}
}

func (c *HealthController) HealthCheck(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	var (
		mu         sync.Mutex
		components = make(map[string]string, len(c.checks))
		g          errgroup.Group
	)
	for name, ping := range c.checks {
		name, ping := name, ping
		g.Go(func() error {
			status := "up"
			err := ping(checkCtx)
			if err != nil {
				status = "down: " + err.Error()
			}
			mu.Lock()
			components[name] = status
			mu.Unlock()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, "degraded", gin.H{
			"status":     "degraded",
			"components": components,
		})
		return
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
