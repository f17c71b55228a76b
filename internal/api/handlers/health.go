package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dzivkovi/serverless-app-gemini/internal/config"
	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
)

type HealthHandler struct {
	cfg      *config.Config
	provider llm.Provider
}

func NewHealthHandler(cfg *config.Config, provider llm.Provider) *HealthHandler {
	return &HealthHandler{cfg: cfg, provider: provider}
}

// HealthCheck returns the health status of the gateway
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"generation": gin.H{
			"provider": h.provider.Name(),
			"model":    h.cfg.ModelName,
		},
		"session_store": h.cfg.SessionStore,
	})
}
