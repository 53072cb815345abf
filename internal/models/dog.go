package models

import "time"

type Size string

const (
	SizeSmall  Size = "pequeño"
	SizeMedium Size = "mediano"
	SizeLarge  Size = "grande"
)

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "macho"
	GenderFemale Gender = "hembra"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	}
	return false
}

// Status is the adoption state of a listing. The remote service only moves
// a dog forward; once adoptado the status is frozen.
type Status string

const (
	StatusAvailable Status = "disponible"
	StatusReserved  Status = "reservado"
	StatusAdopted   Status = "adoptado"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusAdopted:
		return true
	}
	return false
}

type Dog struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AgeYears  int    `json:"age_years"`
	AgeMonths int    `json:"age_months"`
	Breed     string `json:"breed"`
	Size      Size   `json:"size"`
	Gender    Gender `json:"gender"`
	Color     string `json:"color"`

	Description string `json:"description,omitempty"`

	Vaccinated   bool   `json:"vaccinated"`
	Sterilized   bool   `json:"sterilized"`
	Dewormed     bool   `json:"dewormed"`
	SpecialNeeds string `json:"special_needs,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Province  string  `json:"province,omitempty"`

	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email,omitempty"`

	// Photos are in display order; the first one is the cover.
	Photos      []string `json:"photos"`
	Certificate string   `json:"certificate,omitempty"`

	Status      Status `json:"status"`
	PublisherID string `json:"publisher_id"`
	Publisher   *User  `json:"publisher,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	AdoptedAt *time.Time `json:"adopted_at,omitempty"`
}

// Cover returns the first photo, or "" when the dog has none.
func (d *Dog) Cover() string {
	if d == nil || len(d.Photos) == 0 {
		return ""
	}
	return d.Photos[0]
}

type StatusChange struct {
	ID        string    `json:"id"`
	OldStatus *Status   `json:"old_status,omitempty"`
	NewStatus Status    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}
