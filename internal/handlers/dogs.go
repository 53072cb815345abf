package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/detail"
	"pura-pata-web/internal/dogsapi"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/share"
	"pura-pata-web/internal/web"
)

type DogsHandler struct {
	api     DogsAPI
	baseURL string
	log     *zap.Logger
}

func NewDogsHandler(api DogsAPI, baseURL string, log *zap.Logger) *DogsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DogsHandler{api: api, baseURL: baseURL, log: log}
}

// Detail renders one listing. The foto query parameter selects the gallery
// photo; out-of-range values are clamped.
func (h *DogsHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	dog, err := h.api.GetDog(ctx, id)
	if errors.Is(err, dogsapi.ErrNotFound) {
		notFoundPage(c, "Perro no encontrado")
		return
	}
	if err != nil {
		h.log.Error("failed to load dog", zap.String("dog_id", id), zap.Error(err))
		render(c, http.StatusBadGateway, "not_found.tmpl", "Error", gin.H{"Message": "No se pudo cargar el perro, intenta de nuevo"})
		return
	}

	photo, _ := strconv.Atoi(c.Query("foto"))

	history, err := h.api.StatusHistory(ctx, id)
	if err != nil {
		h.log.Warn("failed to load status history", zap.String("dog_id", id), zap.Error(err))
		history = nil
	}

	user := middleware.CurrentUser(c)
	links := share.LinksFor(h.baseURL, dog)
	copied := false
	if v := middleware.CurrentVisitor(c); v != nil {
		copied = v.Ack.Copied(links.URL)
	}

	render(c, http.StatusOK, "detail.tmpl", dog.Name, gin.H{
		"V":        detail.Present(dog, photo),
		"Sizes":    web.SizeOptions,
		"Genders":  web.GenderOptions,
		"Statuses": web.StatusOptions,
		"Share":    links,
		"Copied":   copied,
		"Owner":    user != nil && user.ID == dog.PublisherID,
		"History":  history,
	})
}

// MyDogs lists the signed-in publisher's dogs, optionally by status (the
// estado query parameter). An unknown status shows every dog.
func (h *DogsHandler) MyDogs(c *gin.Context) {
	status := models.Status(c.Query("estado"))
	if !status.Valid() {
		status = ""
	}

	data := gin.H{
		"StatusFilter": string(status),
		"Statuses":     web.StatusOptions,
	}
	dogs, err := h.api.MyDogs(c.Request.Context(), middleware.AccessToken(c), status)
	if err != nil {
		h.log.Error("failed to load own dogs", zap.Error(err))
		data["Error"] = "No se pudieron cargar tus perros"
	} else {
		data["Cards"] = detail.PresentAll(dogs)
	}
	render(c, http.StatusOK, "my_dogs.tmpl", "Mis Perros", data)
}

// UpdateStatus godoc
// @Summary     Change adoption status
// @Description Moves a dog to disponible, reservado or adoptado. Only the publisher may change it; the remote service enforces transitions.
// @Tags        dogs
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id      path string             true "Dog ID"
// @Param       request body models.StatusUpdate true "New status"
// @Success     200 {object} models.Dog
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/dogs/{id}/status [patch]
func (h *DogsHandler) UpdateStatus(c *gin.Context) {
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid status", Message: "Estado no válido"})
		return
	}

	dog, err := h.api.UpdateStatus(c.Request.Context(), middleware.AccessToken(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, "update status", err)
		return
	}
	c.JSON(http.StatusOK, dog)
}

// Delete godoc
// @Summary     Delete a listing
// @Tags        dogs
// @Security    Bearer
// @Param       id path string true "Dog ID"
// @Success     204
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/dogs/{id} [delete]
func (h *DogsHandler) Delete(c *gin.Context) {
	if err := h.api.DeleteDog(c.Request.Context(), middleware.AccessToken(c), c.Param("id")); err != nil {
		respondError(c, h.log, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}
