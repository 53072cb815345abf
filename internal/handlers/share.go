package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/share"
)

const (
	channelLink      = "link"
	channelInstagram = "instagram"
)

type ShareHandler struct {
	api     DogsAPI
	baseURL string
	log     *zap.Logger
}

func NewShareHandler(api DogsAPI, baseURL string, log *zap.Logger) *ShareHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShareHandler{api: api, baseURL: baseURL, log: log}
}

// Links godoc
// @Summary     Share links
// @Description Returns the public URL of a dog with its Facebook and WhatsApp share links, and whether the visitor's copy acknowledgment is showing.
// @Tags        share
// @Produce     json
// @Param       id path string true "Dog ID"
// @Success     200 {object} models.ShareResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/share/{id} [get]
func (h *ShareHandler) Links(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}
	dog, err := h.api.GetDog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "share", err)
		return
	}

	links := share.LinksFor(h.baseURL, dog)
	c.JSON(http.StatusOK, models.ShareResponse{
		URL:         links.URL,
		FacebookURL: links.Facebook,
		WhatsAppURL: links.WhatsApp,
		Copied:      v.Ack.Copied(links.URL),
	})
}

// Copy godoc
// @Summary     Record a copied link
// @Description The page script writes the link to the browser clipboard and reports the outcome here. A successful copy turns the visitor's acknowledgment on for a short window; for Instagram the paste hint is returned.
// @Tags        share
// @Accept      json
// @Produce     json
// @Param       id      path string             true "Dog ID"
// @Param       request body models.CopyRequest true "Channel and clipboard outcome"
// @Success     200 {object} models.ShareResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/share/{id}/copy [post]
func (h *ShareHandler) Copy(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}
	var req models.CopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	url := share.DogURL(h.baseURL, c.Param("id"))
	cb := reportedClipboard{err: req.ClientError}
	resp := models.ShareResponse{URL: url}

	var err error
	switch req.Channel {
	case channelLink:
		err = share.CopyLink(c.Request.Context(), cb, url, v.Ack)
	case channelInstagram:
		resp.Hint, err = share.CopyForInstagram(c.Request.Context(), cb, url, v.Ack)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid channel", Message: messages[http.StatusBadRequest]})
		return
	}
	if err != nil {
		h.log.Warn("clipboard write failed", zap.String("channel", req.Channel), zap.Error(err))
	}

	resp.Copied = v.Ack.Copied(url)
	c.JSON(http.StatusOK, resp)
}

// reportedClipboard stands in for the browser clipboard: the write already
// happened in the page, and err is what the browser reported.
type reportedClipboard struct {
	err string
}

func (r reportedClipboard) WriteText(context.Context, string) error {
	if r.err != "" {
		return errors.New(r.err)
	}
	return nil
}
