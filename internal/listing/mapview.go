package listing

import "pura-pata-web/internal/models"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is the info-window payload for one dog on the map.
type Marker struct {
	ID       string `json:"id"`
	Position LatLng `json:"position"`
	Name     string `json:"name"`
	Breed    string `json:"breed"`
	Province string `json:"province,omitempty"`
	URL      string `json:"url"`
}

type MapView struct {
	APIKey  string   `json:"-"`
	Center  LatLng   `json:"center"`
	Zoom    int      `json:"zoom"`
	Markers []Marker `json:"markers"`
}

func Markers(dogs []models.Dog) []Marker {
	markers := make([]Marker, 0, len(dogs))
	for _, d := range dogs {
		markers = append(markers, Marker{
			ID:       d.ID,
			Position: LatLng{Lat: d.Latitude, Lng: d.Longitude},
			Name:     d.Name,
			Breed:    d.Breed,
			Province: d.Province,
			URL:      "/perros/" + d.ID,
		})
	}
	return markers
}
