// Package detail derives display values for a single dog. Nothing here
// holds state beyond the gallery index of the photo being shown.
package detail

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"pura-pata-web/internal/models"
)

const (
	PlaceholderPhoto = "/static/placeholder-dog.svg"
	DefaultLocation  = "Costa Rica"
)

// AgeText renders years and months the way the listing cards show them:
// months only for puppies, years only on birthdays, both otherwise.
func AgeText(years, months int) string {
	switch {
	case years == 0:
		return fmt.Sprintf("%d meses", months)
	case months == 0:
		return yearsText(years)
	default:
		return fmt.Sprintf("%s y %d meses", yearsText(years), months)
	}
}

func yearsText(years int) string {
	if years == 1 {
		return "1 año"
	}
	return fmt.Sprintf("%d años", years)
}

// Greeting is the message prefilled in the adopter's chat.
func Greeting(name string) string {
	return fmt.Sprintf("Hola! Estoy interesado en adoptar a %s. Vi su publicación en Pura Pata.", name)
}

// ContactLink builds the WhatsApp deep link for a listing.
func ContactLink(phone, name string) string {
	return "https://wa.me/" + Digits(phone) + "?text=" + EscapeComponent(Greeting(name))
}

// Digits keeps only the decimal digits of s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// EscapeComponent escapes s for use inside a query value, encoding spaces as
// %20 rather than '+'.
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// LocationText prefers the province, then the address.
func LocationText(d *models.Dog) string {
	if p := strings.TrimSpace(d.Province); p != "" {
		return p
	}
	if a := strings.TrimSpace(d.Address); a != "" {
		return a
	}
	return DefaultLocation
}

type Badge struct {
	Label string
	Class string
}

// StatusBadge maps every status to its badge. Values the remote service may
// add later get a neutral badge labelled with the raw value.
func StatusBadge(s models.Status) Badge {
	switch s {
	case models.StatusAvailable:
		return Badge{Label: "Disponible", Class: "badge-available"}
	case models.StatusReserved:
		return Badge{Label: "Reservado", Class: "badge-reserved"}
	case models.StatusAdopted:
		return Badge{Label: "Adoptado", Class: "badge-adopted"}
	}
	return Badge{Label: capitalize(string(s)), Class: "badge-neutral"}
}

func capitalize(s string) string {
	if s == "" {
		return "Desconocido"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

type HealthFlag struct {
	Label string
	OK    bool
}

func Health(d *models.Dog) []HealthFlag {
	return []HealthFlag{
		{Label: "Vacunado", OK: d.Vaccinated},
		{Label: "Castrado", OK: d.Sterilized},
		{Label: "Desparasitado", OK: d.Dewormed},
	}
}
