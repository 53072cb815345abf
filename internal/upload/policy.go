package upload

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

var ErrRejected = errors.New("file rejected")

// Reason codes match the ones browsers' drop zones report, so the page
// script can show the same message for client- and server-side rejections.
type Reason string

const (
	ReasonType Reason = "file-invalid-type"
	ReasonSize Reason = "file-too-large"
)

// Rejection explains why a candidate file never entered the staging area.
type Rejection struct {
	Filename string
	Reason   Reason
	Policy   Policy
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Filename, r.Reason)
}

func (r *Rejection) Unwrap() error { return ErrRejected }

// Message is the user-facing explanation.
func (r *Rejection) Message() string {
	switch r.Reason {
	case ReasonSize:
		return fmt.Sprintf("%s supera el máximo de %s", r.Filename, humanSize(r.Policy.MaxFileSize))
	case ReasonType:
		return fmt.Sprintf("%s no es un formato permitido (%s)", r.Filename, r.Policy.formats())
	}
	return r.Filename + " fue rechazado"
}

// Policy is the acceptance layer in front of the staging area.
type Policy struct {
	AllowedTypes []string
	MaxFileSize  int64
	MaxFiles     int
}

func DefaultPolicy() Policy {
	return Policy{
		AllowedTypes: []string{"image/jpeg", "image/png"},
		MaxFileSize:  5 << 20,
		MaxFiles:     5,
	}
}

// Candidate is a file the visitor picked, before acceptance.
type Candidate struct {
	Name string
	Data []byte
}

// File is an accepted file waiting in a staging area.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Accept checks size first, then type. The type must be allow-listed both by
// extension and by the sniffed content, and the two must agree.
func (p Policy) Accept(c Candidate) (File, error) {
	if int64(len(c.Data)) > p.MaxFileSize {
		return File{}, &Rejection{Filename: c.Name, Reason: ReasonSize, Policy: p}
	}

	byExt := typeByExtension(c.Name)
	sniffed := http.DetectContentType(c.Data)

	if byExt == "" || byExt != sniffed || !slices.Contains(p.AllowedTypes, sniffed) {
		return File{}, &Rejection{Filename: c.Name, Reason: ReasonType, Policy: p}
	}

	return File{Name: c.Name, ContentType: sniffed, Data: c.Data}, nil
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

func typeByExtension(name string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(name))]
}

func (p Policy) formats() string {
	names := make([]string, 0, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		names = append(names, strings.ToUpper(strings.TrimPrefix(t, "image/")))
	}
	return strings.Join(names, ", ")
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
