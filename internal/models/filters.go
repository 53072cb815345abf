package models

import (
	"fmt"
	"net/url"
)

// Dimension names one filterable attribute of the listing.
type Dimension string

const (
	DimensionSize     Dimension = "size"
	DimensionGender   Dimension = "gender"
	DimensionProvince Dimension = "province"
)

func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimensionSize, DimensionGender, DimensionProvince:
		return d, nil
	}
	return "", fmt.Errorf("unknown filter dimension %q", s)
}

// Filters are ANDed equality constraints. An empty field means the
// dimension is unconstrained.
type Filters struct {
	Size     Size   `json:"size,omitempty" form:"size"`
	Gender   Gender `json:"gender,omitempty" form:"gender"`
	Province string `json:"province,omitempty" form:"province"`
}

// Values encodes only the constrained dimensions, so an unconstrained
// dimension never reaches the remote service as an empty parameter.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Size != "" {
		v.Set(string(DimensionSize), string(f.Size))
	}
	if f.Gender != "" {
		v.Set(string(DimensionGender), string(f.Gender))
	}
	if f.Province != "" {
		v.Set(string(DimensionProvince), f.Province)
	}
	return v
}

// With returns a copy of f with one dimension set. An empty value clears it.
func (f Filters) With(d Dimension, value string) Filters {
	switch d {
	case DimensionSize:
		f.Size = Size(value)
	case DimensionGender:
		f.Gender = Gender(value)
	case DimensionProvince:
		f.Province = value
	}
	return f
}

func (f Filters) IsZero() bool {
	return f == Filters{}
}
