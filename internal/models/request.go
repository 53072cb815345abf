package models

// DogInput is the body sent to the remote service when a publisher creates
// or edits a listing. Photos are already-uploaded URLs in display order.
type DogInput struct {
	Name      string `json:"name" form:"name" binding:"required,max=100"`
	AgeYears  int    `json:"age_years" form:"age_years" binding:"min=0,max=30"`
	AgeMonths int    `json:"age_months" form:"age_months" binding:"min=0,max=11"`
	Breed     string `json:"breed" form:"breed" binding:"required,max=100"`
	Size      Size   `json:"size" form:"size" binding:"required,oneof=pequeño mediano grande"`
	Gender    Gender `json:"gender" form:"gender" binding:"required,oneof=macho hembra"`
	Color     string `json:"color" form:"color" binding:"required,max=100"`

	Description string `json:"description,omitempty" form:"description"`

	Vaccinated   bool   `json:"vaccinated" form:"vaccinated"`
	Sterilized   bool   `json:"sterilized" form:"sterilized"`
	Dewormed     bool   `json:"dewormed" form:"dewormed"`
	SpecialNeeds string `json:"special_needs,omitempty" form:"special_needs"`

	Latitude  float64 `json:"latitude" form:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" form:"longitude" binding:"min=-180,max=180"`
	Address   string  `json:"address,omitempty" form:"address"`
	Province  string  `json:"province,omitempty" form:"province"`

	ContactPhone string `json:"contact_phone" form:"contact_phone" binding:"required,max=20"`
	ContactEmail string `json:"contact_email,omitempty" form:"contact_email" binding:"omitempty,email"`

	Photos      []string `json:"photos" form:"-"`
	Certificate string   `json:"certificate,omitempty" form:"-"`
}

type StatusUpdate struct {
	Status Status `json:"status" binding:"required"`
}

type FilterChange struct {
	Dimension string `json:"dimension" binding:"required"`
	// Value "" clears the dimension.
	Value string `json:"value"`
}

// CopyRequest reports a clipboard write the page script attempted.
// ClientError is set when the browser refused the write.
type CopyRequest struct {
	Channel     string `json:"channel" binding:"required"`
	ClientError string `json:"client_error,omitempty"`
}
