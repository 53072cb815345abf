package detail

import (
	"time"

	"pura-pata-web/internal/models"
)

// View is everything the detail page and the listing card render.
type View struct {
	Dog         *models.Dog
	Age         string
	Location    string
	Badge       Badge
	Health      []HealthFlag
	ContactLink string
	Gallery     *Gallery
	Cover       string
	// AdoptedOn is empty when the listing is adopted but the remote record
	// carries no timestamp.
	AdoptedOn string
}

// Present derives the view of d with photo index selected.
func Present(d *models.Dog, photo int) View {
	g := NewGallery(d.Photos)
	g.Select(photo)

	cover := d.Cover()
	if cover == "" {
		cover = PlaceholderPhoto
	}

	v := View{
		Dog:         d,
		Age:         AgeText(d.AgeYears, d.AgeMonths),
		Location:    LocationText(d),
		Badge:       StatusBadge(d.Status),
		Health:      Health(d),
		ContactLink: ContactLink(d.ContactPhone, d.Name),
		Gallery:     g,
		Cover:       cover,
	}
	if d.Status == models.StatusAdopted && d.AdoptedAt != nil {
		v.AdoptedOn = d.AdoptedAt.In(costaRica).Format("02/01/2006")
	}
	return v
}

// PresentAll builds card views for a listing, keeping its order.
func PresentAll(dogs []models.Dog) []View {
	out := make([]View, len(dogs))
	for i := range dogs {
		out[i] = Present(&dogs[i], 0)
	}
	return out
}

var costaRica = time.FixedZone("CST", -6*60*60)
