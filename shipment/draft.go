package shipment

import (
	"sync"
	"time"

	"packmate/models"
)

// Partial carries the fields one wizard step contributes. Nil fields are
// left untouched by MergePartial, so the travel step and the package step
// never clobber each other's data.
type Partial struct {
	OriginCountry      *string
	OriginCity         *string
	DestinationCountry *string
	DestinationCity    *string
	DepartureAt        *time.Time
	ArrivalAt          *time.Time
	Mode               *models.TripMode
	FlightNumber       *string
	VehiclePlate       *string
	AllowedCategories  []string
	MaxWeightKg        *float64
	MaxHeightCm        *float64
	MaxWidthCm         *float64
	MaxLengthCm        *float64
}

// Store holds the trip draft being assembled by the wizard, plus the
// process-lifetime traveler-mode flag. The flag is deliberately not
// persisted: losing it on restart only re-shows the "activate traveler
// mode" home variant.
type Store struct {
	mu           sync.Mutex
	draft        models.ShipmentDraft
	travelerMode bool
}

// NewStore creates an empty draft store.
func NewStore() *Store {
	return &Store{}
}

// MergePartial shallow-merges the provided fields into the draft. Fields not
// present in p are preserved; overlapping fields take p's value.
func (s *Store) MergePartial(p Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.OriginCountry != nil {
		s.draft.Origin.Country = *p.OriginCountry
	}
	if p.OriginCity != nil {
		s.draft.Origin.City = *p.OriginCity
	}
	if p.DestinationCountry != nil {
		s.draft.Destination.Country = *p.DestinationCountry
	}
	if p.DestinationCity != nil {
		s.draft.Destination.City = *p.DestinationCity
	}
	if p.DepartureAt != nil {
		s.draft.DepartureAt = *p.DepartureAt
	}
	if p.ArrivalAt != nil {
		s.draft.ArrivalAt = *p.ArrivalAt
	}
	if p.Mode != nil {
		s.draft.Mode = *p.Mode
	}
	if p.FlightNumber != nil {
		s.draft.FlightNumber = *p.FlightNumber
	}
	if p.VehiclePlate != nil {
		s.draft.VehiclePlate = *p.VehiclePlate
	}
	if p.AllowedCategories != nil {
		s.draft.AllowedCategories = append([]string(nil), p.AllowedCategories...)
	}
	if p.MaxWeightKg != nil {
		s.draft.MaxWeightKg = *p.MaxWeightKg
	}
	if p.MaxHeightCm != nil {
		s.draft.MaxHeightCm = *p.MaxHeightCm
	}
	if p.MaxWidthCm != nil {
		s.draft.MaxWidthCm = *p.MaxWidthCm
	}
	if p.MaxLengthCm != nil {
		s.draft.MaxLengthCm = *p.MaxLengthCm
	}
}

// Draft returns a copy of the current draft.
func (s *Store) Draft() models.ShipmentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.AllowedCategories = append([]string(nil), s.draft.AllowedCategories...)
	return d
}

// Clear resets the draft. Called after a trip is created or when the
// traveler cancels the wizard.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = models.ShipmentDraft{}
}

// SetTravelerModeActive toggles the traveler-mode home variant.
func (s *Store) SetTravelerModeActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.travelerMode = active
}

// TravelerModeActive reports whether traveler mode has been activated in
// this process lifetime.
func (s *Store) TravelerModeActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.travelerMode
}
