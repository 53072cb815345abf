package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/dogsapi"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
)

// DogsAPI is the remote data service as used by the handlers.
type DogsAPI interface {
	ListDogs(ctx context.Context, filters models.Filters) ([]models.Dog, error)
	GetDog(ctx context.Context, id string) (*models.Dog, error)
	CreateDog(ctx context.Context, token string, in models.DogInput) (*models.Dog, error)
	UpdateDog(ctx context.Context, token, id string, in models.DogInput) (*models.Dog, error)
	UpdateStatus(ctx context.Context, token, id string, status models.Status) (*models.Dog, error)
	DeleteDog(ctx context.Context, token, id string) error
	StatusHistory(ctx context.Context, id string) ([]models.StatusChange, error)
	MyDogs(ctx context.Context, token string, status models.Status) ([]models.Dog, error)
	Me(ctx context.Context, token string) (*models.User, error)
	SyncUser(ctx context.Context, token string, profile models.Profile) (*models.User, error)
}

var _ DogsAPI = (*dogsapi.Client)(nil)

// Recorder receives upload outcomes. *metrics.Metrics implements it.
type Recorder interface {
	Rejected(reason string)
	Uploaded(err error)
}

type nopRecorder struct{}

func (nopRecorder) Rejected(string) {}
func (nopRecorder) Uploaded(error)  {}

// render executes a page template with the title and navigation bar every
// page shares.
func render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Nav"] = session.Nav(middleware.CurrentUser(c), c.Request.URL.Path)
	c.HTML(status, name, data)
}

func notFoundPage(c *gin.Context, message string) {
	render(c, http.StatusNotFound, "not_found.tmpl", "No encontrado", gin.H{"Message": message})
}

// visitor returns the request's visitor, answering 500 when the visitor
// middleware did not run.
func visitor(c *gin.Context) (*visitors.Visitor, bool) {
	v := middleware.CurrentVisitor(c)
	if v == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "visitor not found",
			Message: "Ocurrió un error inesperado",
		})
		return nil, false
	}
	return v, true
}

// statusFor maps an error from the remote service or the upload layer to the
// status this server answers with.
func statusFor(err error) int {
	if errors.Is(err, upload.ErrRejected) {
		var r *upload.Rejection
		if errors.As(err, &r) && r.Reason == upload.ReasonSize {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch code := dogsapi.StatusCode(err); {
	case code == http.StatusNotFound:
		return http.StatusNotFound
	case code == http.StatusUnauthorized:
		return http.StatusUnauthorized
	case code == http.StatusForbidden:
		return http.StatusForbidden
	case code >= 400 && code < 500:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

var messages = map[int]string{
	http.StatusNotFound:              "Perro no encontrado",
	http.StatusUnauthorized:          "Debes iniciar sesión",
	http.StatusForbidden:             "No tienes permiso para esta acción",
	http.StatusBadRequest:            "La solicitud no es válida",
	http.StatusRequestEntityTooLarge: "El archivo es demasiado grande",
	http.StatusGatewayTimeout:        "El servicio tardó demasiado en responder",
	http.StatusBadGateway:            "El servicio no está disponible, intenta de nuevo",
}

// respondError writes the JSON error for err. Server-side failures are
// logged; client mistakes are not.
func respondError(c *gin.Context, log *zap.Logger, action string, err error) {
	status := statusFor(err)
	msg := messages[status]

	var r *upload.Rejection
	if errors.As(err, &r) {
		msg = r.Message()
	}
	if status >= 500 {
		log.Error(action+" failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	c.JSON(status, models.ErrorResponse{Error: action + " failed", Message: msg})
}
