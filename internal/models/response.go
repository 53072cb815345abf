package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Visitors int    `json:"visitors"`
}

type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

type DraftResponse struct {
	Key      string         `json:"key"`
	Files    []StagedFile   `json:"files"`
	Previews []string       `json:"previews"`
	MaxFiles int            `json:"max_files"`
	Rejected []RejectedFile `json:"rejected,omitempty"`
}

type StagedFile struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type PublishResponse struct {
	Dog *Dog `json:"dog"`
}

type ShareResponse struct {
	URL         string `json:"url"`
	FacebookURL string `json:"facebook_url"`
	WhatsAppURL string `json:"whatsapp_url"`
	Copied      bool   `json:"copied"`
	Hint        string `json:"hint,omitempty"`
}

type ListingResponse struct {
	Seq      uint64  `json:"seq"`
	State    string  `json:"state"`
	Criteria Filters `json:"criteria"`
	Dogs     []Dog   `json:"dogs,omitempty"`
	Error    string  `json:"error,omitempty"`
	// HTML is the rendered listing section, when requested.
	HTML string `json:"html,omitempty"`
}

type FilterResponse struct {
	Seq      uint64  `json:"seq"`
	Criteria Filters `json:"criteria"`
}
