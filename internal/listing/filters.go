package listing

import (
	"fmt"
	"sync"

	"pura-pata-web/internal/models"
)

// Provinces are the choices offered by the province filter.
var Provinces = []string{
	"San José", "Alajuela", "Cartago", "Heredia",
	"Guanacaste", "Puntarenas", "Limón",
}

// Issuer starts a listing request for the given criteria and returns its
// sequence number without waiting for the answer.
type Issuer interface {
	Go(filters models.Filters) uint64
}

// FilterState holds the visitor's current criteria. Every mutation issues a
// request with the complete post-mutation criteria while still holding the
// lock, so request order always matches mutation order.
type FilterState struct {
	mu       sync.Mutex
	criteria models.Filters
	issuer   Issuer
}

func NewFilterState(issuer Issuer) *FilterState {
	return &FilterState{issuer: issuer}
}

// Set constrains one dimension; an empty value clears it.
func (s *FilterState) Set(d models.Dimension, value string) (models.Filters, uint64, error) {
	if err := validate(d, value); err != nil {
		return s.Criteria(), 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = s.criteria.With(d, value)
	return s.criteria, s.issuer.Go(s.criteria), nil
}

func (s *FilterState) Clear(d models.Dimension) (models.Filters, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = s.criteria.With(d, "")
	return s.criteria, s.issuer.Go(s.criteria)
}

// Replace swaps the whole criteria set, as when a page is loaded with query
// parameters.
func (s *FilterState) Replace(f models.Filters) (models.Filters, uint64, error) {
	if err := validate(models.DimensionSize, string(f.Size)); err != nil {
		return s.Criteria(), 0, err
	}
	if err := validate(models.DimensionGender, string(f.Gender)); err != nil {
		return s.Criteria(), 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = f
	return s.criteria, s.issuer.Go(s.criteria), nil
}

func (s *FilterState) Criteria() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

func validate(d models.Dimension, value string) error {
	if value == "" {
		return nil
	}
	switch d {
	case models.DimensionSize:
		if !models.Size(value).Valid() {
			return fmt.Errorf("invalid size %q", value)
		}
	case models.DimensionGender:
		if !models.Gender(value).Valid() {
			return fmt.Errorf("invalid gender %q", value)
		}
	case models.DimensionProvince:
	default:
		return fmt.Errorf("unknown filter dimension %q", d)
	}
	return nil
}
