package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pura-pata-web/internal/models"
)

type HealthHandler struct {
	visitors func() int
}

// NewHealthHandler reports liveness together with the number of tracked
// visitors.
func NewHealthHandler(visitors func() int) *HealthHandler {
	return &HealthHandler{visitors: visitors}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the web server
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response := models.HealthResponse{
		Status: "ok",
	}
	if h.visitors != nil {
		response.Visitors = h.visitors()
	}
	c.JSON(http.StatusOK, response)
}
