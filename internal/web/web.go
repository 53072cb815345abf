// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"pura-pata-web/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Option is one choice of a select or radio group.
type Option struct {
	Value string
	Label string
}

var (
	SizeOptions = []Option{
		{string(models.SizeSmall), "Pequeño"},
		{string(models.SizeMedium), "Mediano"},
		{string(models.SizeLarge), "Grande"},
	}
	GenderOptions = []Option{
		{string(models.GenderMale), "Macho"},
		{string(models.GenderFemale), "Hembra"},
	}
	StatusOptions = []Option{
		{string(models.StatusAvailable), "Disponible"},
		{string(models.StatusReserved), "Reservado"},
		{string(models.StatusAdopted), "Adoptado"},
	}
)

var funcs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006")
	},
	"label": func(opts []Option, value any) string {
		v := fmt.Sprint(value)
		for _, o := range opts {
			if o.Value == v {
				return o.Label
			}
		}
		return v
	},
	"add": func(a, b int) int { return a + b },
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
