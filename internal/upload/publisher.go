package upload

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	PhotosFolder       = "dogs/photos"
	CertificatesFolder = "dogs/certificates"

	MaxCertificateSize = 10 << 20

	uploadConcurrency = 3
)

// PhotoStore is the object storage that turns staged files into public URLs.
type PhotoStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// Publisher pushes staged files to storage when a form is submitted.
type Publisher struct {
	store PhotoStore
	log   *zap.Logger
}

func NewPublisher(store PhotoStore, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{store: store, log: log}
}

// UploadAll uploads files in parallel and returns their URLs in staged order,
// so the first staged file stays the cover. If any upload fails, the ones
// that succeeded are deleted again and the error is returned.
func (p *Publisher) UploadAll(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			url, err := p.store.Upload(gctx, ObjectPath(PhotosFolder, f.Name), f.ContentType, f.Data)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.log.Error("photo upload failed", zap.Error(err), zap.Int("files", len(files)))
		p.Discard(context.Background(), urls)
		return nil, err
	}
	return urls, nil
}

// UploadCertificate stores a veterinary certificate, which must be a PDF.
func (p *Publisher) UploadCertificate(ctx context.Context, c Candidate) (string, error) {
	if len(c.Data) > MaxCertificateSize {
		return "", &Rejection{Filename: c.Name, Reason: ReasonSize, Policy: Policy{MaxFileSize: MaxCertificateSize}}
	}
	if typeByExtension(c.Name) != "application/pdf" || http.DetectContentType(c.Data) != "application/pdf" {
		return "", &Rejection{Filename: c.Name, Reason: ReasonType, Policy: Policy{AllowedTypes: []string{"application/pdf"}}}
	}

	url, err := p.store.Upload(ctx, ObjectPath(CertificatesFolder, c.Name), "application/pdf", c.Data)
	if err != nil {
		return "", fmt.Errorf("failed to upload certificate: %w", err)
	}
	return url, nil
}

// Discard deletes uploaded objects that will not be referenced by any
// listing. Failures are logged, not returned.
func (p *Publisher) Discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := p.store.Delete(ctx, url); err != nil {
			p.log.Warn("failed to delete orphaned photo", zap.String("url", url), zap.Error(err))
		}
	}
}

// ObjectPath names a stored object <folder>/<uuid><ext>, keeping only the
// lower-cased extension of the original name.
func ObjectPath(folder, filename string) string {
	return folder + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}
