package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/upload"
)

type PreviewsHandler struct {
	store *upload.PreviewStore
}

func NewPreviewsHandler(store *upload.PreviewStore) *PreviewsHandler {
	return &PreviewsHandler{store: store}
}

// Serve returns a staged photo. Previews die with their draft, so they are
// never cached.
func (h *PreviewsHandler) Serve(c *gin.Context) {
	data, contentType, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "preview not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, data)
}
