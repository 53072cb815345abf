package session

import "pura-pata-web/internal/models"

type NavEntry struct {
	Href   string
	Label  string
	Active bool
}

type Navigation struct {
	Links    []NavEntry
	SignedIn bool
	User     *models.User
	// Account holds profile and logout when signed in, login and register
	// otherwise.
	Account []NavEntry
}

var navLinks = []struct {
	href, label string
	auth        bool
}{
	{"/", "Buscar", false},
	{"/publicar", "Publicar", true},
	{"/mis-perros", "Mis Perros", true},
}

// Nav builds the navigation bar for user on the page at path.
func Nav(user *models.User, path string) Navigation {
	n := Navigation{SignedIn: user != nil, User: user}
	for _, l := range navLinks {
		if l.auth && user == nil {
			continue
		}
		n.Links = append(n.Links, NavEntry{Href: l.href, Label: l.label, Active: path == l.href})
	}

	if user != nil {
		n.Account = []NavEntry{
			{Href: "/perfil", Label: "Perfil", Active: path == "/perfil"},
			{Href: "/logout", Label: "Salir"},
		}
	} else {
		n.Account = []NavEntry{
			{Href: "/login", Label: "Ingresar", Active: path == "/login"},
			{Href: "/registro", Label: "Registrarse", Active: path == "/registro"},
		}
	}
	return n
}
