// Package share builds outbound sharing links and tracks the short "copied"
// acknowledgment shown after a link is copied.
package share

import (
	"strings"

	"pura-pata-web/internal/detail"
	"pura-pata-web/internal/models"
)

const InstagramHint = "Link copiado! Pégalo en tu post de Instagram"

// FacebookURL is the sharer dialog for target.
func FacebookURL(target string) string {
	return "https://www.facebook.com/sharer/sharer.php?u=" + detail.EscapeComponent(target)
}

// WhatsAppURL opens a chat with phone prefilled with text. An empty phone
// lets the visitor pick the recipient.
func WhatsAppURL(phone, text string) string {
	return "https://wa.me/" + detail.Digits(phone) + "?text=" + detail.EscapeComponent(text)
}

// DogURL is the public page of a listing under base.
func DogURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/perros/" + id
}

type Links struct {
	URL         string
	Title       string
	Description string
	Facebook    string
	WhatsApp    string
}

// LinksFor returns every share affordance of a dog's detail page.
func LinksFor(base string, d *models.Dog) Links {
	target := DogURL(base, d.ID)
	title := "Adopta a " + d.Name
	desc := d.Description
	if desc == "" {
		desc = d.Breed + " en adopción"
	}
	return Links{
		URL:         target,
		Title:       title,
		Description: desc,
		Facebook:    FacebookURL(target),
		WhatsApp:    WhatsAppURL("", title+" "+target),
	}
}
