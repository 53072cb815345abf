package detail

// Gallery tracks which photo of a listing is on display.
type Gallery struct {
	Photos []string
	Index  int
}

func NewGallery(photos []string) *Gallery {
	return &Gallery{Photos: photos}
}

// Select moves to photo i, clamped into range. An empty gallery stays at 0.
func (g *Gallery) Select(i int) {
	switch {
	case len(g.Photos) == 0 || i < 0:
		g.Index = 0
	case i >= len(g.Photos):
		g.Index = len(g.Photos) - 1
	default:
		g.Index = i
	}
}

func (g *Gallery) Next() {
	if len(g.Photos) == 0 {
		return
	}
	g.Index = (g.Index + 1) % len(g.Photos)
}

func (g *Gallery) Prev() {
	if len(g.Photos) == 0 {
		return
	}
	g.Index = (g.Index - 1 + len(g.Photos)) % len(g.Photos)
}

// Current is the photo on display, or the placeholder when there is none.
func (g *Gallery) Current() string {
	if len(g.Photos) == 0 {
		return PlaceholderPhoto
	}
	return g.Photos[g.Index]
}

// Thumbnails are only worth showing for more than one photo.
func (g *Gallery) Thumbnails() bool {
	return len(g.Photos) > 1
}
