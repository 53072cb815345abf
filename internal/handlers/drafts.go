package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"pura-pata-web/internal/dogsapi"
	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
	"pura-pata-web/internal/web"
)

// maxFormMemory is what a publish or staging request may hold in memory
// before multipart parts spill to disk.
const maxFormMemory = 32 << 20

type DraftsHandler struct {
	api       DogsAPI
	publisher *upload.Publisher
	policy    upload.Policy
	recorder  Recorder
	log       *zap.Logger
}

func NewDraftsHandler(api DogsAPI, publisher *upload.Publisher, policy upload.Policy, recorder Recorder, log *zap.Logger) *DraftsHandler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftsHandler{api: api, publisher: publisher, policy: policy, recorder: recorder, log: log}
}

// NewForm opens the publish form with an empty staging area. Reloading the
// page discards whatever was staged before.
func (h *DraftsHandler) NewForm(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	s := v.Draft(visitors.NewDraftKey, nil, h.draftChanged(v.ID, visitors.NewDraftKey))

	h.renderForm(c, nil, visitors.NewDraftKey, s, models.DogInput{
		ContactPhone: user.Phone,
		ContactEmail: user.Email,
	})
}

// EditForm opens the edit form of a dog the signed-in user published, seeded
// with its current photos.
func (h *DraftsHandler) EditForm(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}

	dog, err := h.ownDog(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	switch {
	case errors.Is(err, dogsapi.ErrNotFound):
		notFoundPage(c, "Perro no encontrado")
		return
	case errors.Is(err, errNotOwner):
		render(c, http.StatusForbidden, "not_found.tmpl", "Sin permiso", gin.H{"Message": "Solo quien publicó este perro puede editarlo"})
		return
	case err != nil:
		h.log.Error("failed to load dog for editing", zap.String("dog_id", c.Param("id")), zap.Error(err))
		render(c, http.StatusBadGateway, "not_found.tmpl", "Error", gin.H{"Message": "No se pudo cargar el perro, intenta de nuevo"})
		return
	}

	s := v.Draft(dog.ID, dog.Photos, h.draftChanged(v.ID, dog.ID))
	h.renderForm(c, dog, dog.ID, s, inputFrom(dog))
}

// draftChanged logs the staged sequence of a form after each change.
func (h *DraftsHandler) draftChanged(visitorID, key string) func([]upload.File) {
	return func(files []upload.File) {
		var size int64
		for _, f := range files {
			size += f.Size()
		}
		h.log.Debug("draft changed",
			zap.String("visitor_id", visitorID),
			zap.String("draft", key),
			zap.Int("staged", len(files)),
			zap.Int64("bytes", size))
	}
}

func (h *DraftsHandler) renderForm(c *gin.Context, dog *models.Dog, key string, s *upload.Stager, in models.DogInput) {
	title := "Publicar"
	if dog != nil {
		title = "Editar a " + dog.Name
	}
	render(c, http.StatusOK, "form.tmpl", title, gin.H{
		"Dog":       dog,
		"DraftKey":  key,
		"MaxFiles":  s.MaxFiles(),
		"Accept":    strings.Join(h.policy.AllowedTypes, ","),
		"Previews":  s.Previews(),
		"Existing":  len(s.Existing()),
		"Input":     in,
		"Sizes":     web.SizeOptions,
		"Genders":   web.GenderOptions,
		"Provinces": listing.Provinces,
	})
}

// StageFiles godoc
// @Summary     Stage photos
// @Description Adds photos to the staging area of an open form. Files failing the type or size policy are reported and never staged; files beyond the maximum are dropped.
// @Tags        drafts
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       key   path     string true "Draft key: nuevo or the dog ID"
// @Param       files formData file   true "Photos (multiple files allowed)"
// @Success     200 {object} models.DraftResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/drafts/{key}/files [post]
func (h *DraftsHandler) StageFiles(c *gin.Context) {
	s, ok := h.draft(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to parse multipart form", Message: err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no files uploaded", Message: "Selecciona al menos una foto"})
		return
	}

	candidates := make([]upload.Candidate, 0, len(headers))
	for _, fh := range headers {
		cand, err := readCandidate(fh, h.policy.MaxFileSize)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
			return
		}
		candidates = append(candidates, cand)
	}

	rejected, dropped := s.Offer(candidates...)

	report := make([]models.RejectedFile, 0, len(rejected)+len(dropped))
	for _, r := range rejected {
		h.recorder.Rejected(string(r.Reason))
		report = append(report, models.RejectedFile{Filename: r.Filename, Reason: string(r.Reason), Message: r.Message()})
	}
	for _, f := range dropped {
		h.recorder.Rejected(reasonTooMany)
		report = append(report, models.RejectedFile{
			Filename: f.Name,
			Reason:   reasonTooMany,
			Message:  fmt.Sprintf("%s no se agregó: máximo %d fotos", f.Name, s.MaxFiles()),
		})
	}

	c.JSON(http.StatusOK, draftResponse(c.Param("key"), s, report))
}

const reasonTooMany = "too-many-files"

// RemoveFile godoc
// @Summary     Unstage a photo
// @Description Removes the staged photo at index. Out-of-range indexes leave the draft unchanged.
// @Tags        drafts
// @Produce     json
// @Param       key   path string true "Draft key"
// @Param       index path int    true "Index among staged photos"
// @Success     200 {object} models.DraftResponse
// @Router      /api/drafts/{key}/files/{index} [delete]
func (h *DraftsHandler) RemoveFile(c *gin.Context) {
	h.removeAt(c, (*upload.Stager).Remove)
}

// RemoveExisting godoc
// @Summary     Drop a published photo
// @Description Removes a photo the listing already had from the edit form. The stored object is kept.
// @Tags        drafts
// @Produce     json
// @Param       key   path string true "Draft key"
// @Param       index path int    true "Index among existing photos"
// @Success     200 {object} models.DraftResponse
// @Router      /api/drafts/{key}/existing/{index} [delete]
func (h *DraftsHandler) RemoveExisting(c *gin.Context) {
	h.removeAt(c, (*upload.Stager).RemoveExisting)
}

func (h *DraftsHandler) removeAt(c *gin.Context, remove func(*upload.Stager, int)) {
	s, ok := h.draft(c)
	if !ok {
		return
	}
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid index", Message: messages[http.StatusBadRequest]})
		return
	}
	remove(s, i)
	c.JSON(http.StatusOK, draftResponse(c.Param("key"), s, nil))
}

// Publish godoc
// @Summary     Publish or update a listing
// @Description Uploads the staged photos, then creates the listing (draft key nuevo) or updates the dog whose ID is the draft key. Photos keep staging order; the first is the cover.
// @Tags        drafts
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       key         path     string true  "Draft key"
// @Param       certificate formData file   false "Veterinary certificate (PDF)"
// @Success     201 {object} models.PublishResponse
// @Success     200 {object} models.PublishResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/drafts/{key}/publish [post]
func (h *DraftsHandler) Publish(c *gin.Context) {
	v, ok := visitor(c)
	if !ok {
		return
	}
	s, ok := h.draft(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := c.Param("key")
	token := middleware.AccessToken(c)

	var in models.DogInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: validationMessage(err)})
		return
	}
	if in.Province != "" && !slices.Contains(listing.Provinces, in.Province) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "Provincia no válida"})
		return
	}

	existing, files := s.Existing(), s.Files()
	if len(existing)+len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "Agrega al menos una foto"})
		return
	}

	var current *models.Dog
	if key != visitors.NewDraftKey {
		dog, err := h.ownDog(ctx, key, middleware.CurrentUser(c))
		if errors.Is(err, errNotOwner) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "publish failed", Message: messages[http.StatusForbidden]})
			return
		}
		if err != nil {
			respondError(c, h.log, "publish", err)
			return
		}
		current = dog
		in.Certificate = dog.Certificate
	}

	var cert *upload.Candidate
	if fh, err := c.FormFile("certificate"); err == nil {
		cand, err := readCandidate(fh, upload.MaxCertificateSize)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
			return
		}
		cert = &cand
	}

	urls, err := h.publisher.UploadAll(ctx, files)
	h.recorder.Uploaded(err)
	if err != nil {
		respondError(c, h.log, "upload", err)
		return
	}
	uploaded := urls

	if cert != nil {
		certURL, err := h.publisher.UploadCertificate(ctx, *cert)
		if err != nil {
			h.publisher.Discard(context.WithoutCancel(ctx), uploaded)
			respondError(c, h.log, "certificate upload", err)
			return
		}
		uploaded = append(uploaded, certURL)
		in.Certificate = certURL
	}

	in.Photos = append(existing, urls...)

	var (
		dog    *models.Dog
		status = http.StatusCreated
	)
	if current == nil {
		dog, err = h.api.CreateDog(ctx, token, in)
	} else {
		dog, err = h.api.UpdateDog(ctx, token, current.ID, in)
		status = http.StatusOK
	}
	if err != nil {
		h.publisher.Discard(context.WithoutCancel(ctx), uploaded)
		respondError(c, h.log, "publish", err)
		return
	}

	v.DiscardDraft(key)
	h.log.Info("dog published",
		zap.String("dog_id", dog.ID),
		zap.Int("photos", len(in.Photos)),
		zap.Bool("update", current != nil))
	c.JSON(status, models.PublishResponse{Dog: dog})
}

// draft resolves the :key draft of the request's visitor. A missing draft
// means the form page was opened in another session or expired.
func (h *DraftsHandler) draft(c *gin.Context) (*upload.Stager, bool) {
	v, ok := visitor(c)
	if !ok {
		return nil, false
	}
	s, ok := v.LookupDraft(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "draft not found",
			Message: "El formulario expiró, recarga la página",
		})
		return nil, false
	}
	return s, true
}

var errNotOwner = errors.New("not the publisher of this dog")

func (h *DraftsHandler) ownDog(ctx context.Context, id string, user *models.User) (*models.Dog, error) {
	dog, err := h.api.GetDog(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || dog.PublisherID != user.ID {
		return nil, errNotOwner
	}
	return dog, nil
}

// readCandidate reads at most limit+1 bytes, enough for the policy to see
// an oversized file without buffering all of it.
func readCandidate(fh *multipart.FileHeader, limit int64) (upload.Candidate, error) {
	f, err := fh.Open()
	if err != nil {
		return upload.Candidate{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return upload.Candidate{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return upload.Candidate{Name: fh.Filename, Data: data}, nil
}

func draftResponse(key string, s *upload.Stager, rejected []models.RejectedFile) models.DraftResponse {
	files := s.Files()
	staged := make([]models.StagedFile, len(files))
	for i, f := range files {
		staged[i] = models.StagedFile{Filename: f.Name, Size: f.Size(), ContentType: f.ContentType}
	}
	return models.DraftResponse{
		Key:      key,
		Files:    staged,
		Previews: s.Previews(),
		MaxFiles: s.MaxFiles(),
		Rejected: rejected,
	}
}

func inputFrom(d *models.Dog) models.DogInput {
	return models.DogInput{
		Name:         d.Name,
		AgeYears:     d.AgeYears,
		AgeMonths:    d.AgeMonths,
		Breed:        d.Breed,
		Size:         d.Size,
		Gender:       d.Gender,
		Color:        d.Color,
		Description:  d.Description,
		Vaccinated:   d.Vaccinated,
		Sterilized:   d.Sterilized,
		Dewormed:     d.Dewormed,
		SpecialNeeds: d.SpecialNeeds,
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		Address:      d.Address,
		Province:     d.Province,
		ContactPhone: d.ContactPhone,
		ContactEmail: d.ContactEmail,
		Photos:       d.Photos,
		Certificate:  d.Certificate,
	}
}

var fieldLabels = map[string]string{
	"Name":         "nombre",
	"AgeYears":     "años",
	"AgeMonths":    "meses",
	"Breed":        "raza",
	"Size":         "tamaño",
	"Gender":       "sexo",
	"Color":        "color",
	"Latitude":     "latitud",
	"Longitude":    "longitud",
	"ContactPhone": "teléfono",
	"ContactEmail": "correo",
}

// validationMessage names the first invalid field in Spanish.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		label := fieldLabels[fe.StructField()]
		if label == "" {
			label = strings.ToLower(fe.Field())
		}
		if fe.Tag() == "required" {
			return "El campo " + label + " es obligatorio"
		}
		return "Revisa el campo " + label
	}
	return messages[http.StatusBadRequest]
}
