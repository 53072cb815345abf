package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/config"
	"pura-pata-web/internal/detail"
	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/web"
)

const (
	viewGrid = "grid"
	viewMap  = "map"

	defaultListingWait = 10 * time.Second
)

type ListingHandler struct {
	templates *template.Template
	maps      config.MapsConfig
	wait      time.Duration
	log       *zap.Logger
}

// NewListingHandler serves the search page. wait bounds how long a request
// blocks for the remote listing before the page renders in its loading state.
func NewListingHandler(templates *template.Template, maps config.MapsConfig, wait time.Duration, log *zap.Logger) *ListingHandler {
	if wait <= 0 {
		wait = defaultListingWait
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingHandler{templates: templates, maps: maps, wait: wait, log: log}
}

// Index renders the listing for the criteria in the query string. Every
// page load issues a fresh request; only /api/listing reads the listing
// already assembled for the visitor.
func (h *ListingHandler) Index(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}

	var query models.Filters
	if err := c.ShouldBindQuery(&query); err != nil {
		h.log.Debug("ignoring malformed filter query", zap.Error(err))
	}

	_, seq, err := v.Filters.Replace(query)
	if err != nil {
		h.log.Debug("ignoring invalid filter query", zap.Error(err))
		_, seq, _ = v.Filters.Replace(models.Filters{})
	}

	snap := h.await(c.Request.Context(), v.Listing, seq)
	view := viewMode(c.Query("view"))

	data := h.listingData(snap, view)
	data["Seq"] = snap.Seq
	data["Sizes"] = web.SizeOptions
	data["Genders"] = web.GenderOptions
	data["Provinces"] = listing.Provinces
	data["Filters"] = snap.Criteria
	data["GridQuery"] = viewQuery(snap.Criteria, viewGrid)
	data["MapQuery"] = viewQuery(snap.Criteria, viewMap)
	render(c, http.StatusOK, "index.tmpl", "", data)
}

// Snapshot godoc
// @Summary     Current listing
// @Description Waits until the listing reflects the request numbered seq, then returns it.
// @Tags        listing
// @Produce     json
// @Param       seq    query int    false "Sequence number returned by a filter change"
// @Param       format query string false "html to receive the rendered listing section"
// @Param       view   query string false "grid or map"
// @Success     200 {object} models.ListingResponse
// @Router      /api/listing [get]
func (h *ListingHandler) Snapshot(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}

	seq := v.Listing.Snapshot().Seq
	if raw := c.Query("seq"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid seq", Message: messages[http.StatusBadRequest]})
			return
		}
		seq = n
	}

	snap := h.await(c.Request.Context(), v.Listing, seq)
	resp := models.ListingResponse{
		Seq:      snap.Seq,
		State:    string(snap.State),
		Criteria: snap.Criteria,
		Error:    snap.Err,
	}

	if c.Query("format") == "html" {
		var buf bytes.Buffer
		if err := h.templates.ExecuteTemplate(&buf, "listing", h.listingData(snap, viewMode(c.Query("view")))); err != nil {
			h.log.Error("failed to render listing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "render failed"})
			return
		}
		resp.HTML = buf.String()
	} else {
		resp.Dogs = snap.Dogs
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateFilters godoc
// @Summary     Change one filter
// @Description Sets or clears one filter dimension and starts a new listing request. An empty value clears the dimension.
// @Tags        listing
// @Accept      json
// @Produce     json
// @Param       request body models.FilterChange true "Dimension and value"
// @Success     200 {object} models.FilterResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/listing/filters [patch]
func (h *ListingHandler) UpdateFilters(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}

	var req models.FilterChange
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	dim, err := models.ParseDimension(req.Dimension)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid dimension", Message: err.Error()})
		return
	}

	var (
		criteria models.Filters
		seq      uint64
	)
	if req.Value == "" {
		criteria, seq = v.Filters.Clear(dim)
	} else if criteria, seq, err = v.Filters.Set(dim, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid value", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.FilterResponse{Seq: seq, Criteria: criteria})
}

// await waits a bounded time for the listing to settle. On timeout the
// loading snapshot is returned as is.
func (h *ListingHandler) await(ctx context.Context, a *listing.Assembler, seq uint64) listing.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, h.wait)
	defer cancel()

	snap, err := a.Await(ctx, seq)
	if err != nil {
		h.log.Debug("listing not ready", zap.Uint64("seq", seq), zap.Error(err))
	}
	return snap
}

func (h *ListingHandler) listingData(snap listing.Snapshot, view string) gin.H {
	data := gin.H{
		"State": snap.State,
		"Error": snap.Err,
		"View":  view,
		"Cards": detail.PresentAll(snap.Dogs),
	}
	if view == viewMap {
		data["Map"] = listing.MapView{
			APIKey:  h.maps.APIKey,
			Center:  listing.LatLng{Lat: h.maps.CenterLat, Lng: h.maps.CenterLng},
			Zoom:    h.maps.Zoom,
			Markers: listing.Markers(snap.Dogs),
		}
	}
	return data
}

func viewMode(s string) string {
	if s == viewMap {
		return viewMap
	}
	return viewGrid
}

// viewQuery encodes criteria plus the view, for the view toggle links.
func viewQuery(f models.Filters, view string) string {
	q := f.Values()
	if view != viewGrid {
		q.Set("view", view)
	}
	return q.Encode()
}
