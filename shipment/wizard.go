package shipment

import (
	"fmt"
	"sync"

	"packmate/models"
)

// ValidationError blocks forward navigation at a wizard step. It never
// reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shipment: %s: %s", e.Field, e.Message)
}

// Step is a state of the trip wizard.
type Step string

const (
	StepTravelDetails  Step = "travel_details"
	StepPackageDetails Step = "package_details"
	StepSubmitting     Step = "submitting"
	StepDone           Step = "done"
	StepFailed         Step = "failed"
)

// Wizard is the two-step trip state machine. Each step validates its own
// fields before merging them into the shared draft; the complete trip only
// exists once the package step has submitted.
type Wizard struct {
	mu    sync.Mutex
	step  Step
	store *Store
}

// NewWizard starts a wizard over the given draft store.
func NewWizard(store *Store) *Wizard {
	return &Wizard{step: StepTravelDetails, store: store}
}

// Step returns the current wizard state.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// SubmitTravelDetails validates and merges the travel step.
func (w *Wizard) SubmitTravelDetails(p Partial) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepTravelDetails {
		return fmt.Errorf("shipment: travel details already submitted (step %s)", w.step)
	}
	if err := validateTravel(p); err != nil {
		return err
	}
	w.store.MergePartial(p)
	w.step = StepPackageDetails
	return nil
}

// SubmitPackageDetails validates and merges the package step, moving the
// wizard into Submitting. The caller then creates the trip and reports the
// outcome via Complete or Fail.
func (w *Wizard) SubmitPackageDetails(p Partial) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPackageDetails {
		return fmt.Errorf("shipment: package details not expected at step %s", w.step)
	}
	if err := validatePackage(p); err != nil {
		return err
	}
	w.store.MergePartial(p)
	w.step = StepSubmitting
	return nil
}

// Complete records a successful trip creation: traveler mode activates and
// the draft is cleared.
func (w *Wizard) Complete() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepSubmitting {
		return fmt.Errorf("shipment: cannot complete at step %s", w.step)
	}
	w.step = StepDone
	w.store.SetTravelerModeActive(true)
	w.store.Clear()
	return nil
}

// Fail records a failed trip creation. The draft stays intact for retry.
func (w *Wizard) Fail() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepSubmitting {
		return fmt.Errorf("shipment: cannot fail at step %s", w.step)
	}
	w.step = StepFailed
	return nil
}

// Retry returns a failed wizard to the package step.
func (w *Wizard) Retry() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepFailed {
		return fmt.Errorf("shipment: cannot retry at step %s", w.step)
	}
	w.step = StepPackageDetails
	return nil
}

// Cancel abandons the wizard and clears the draft.
func (w *Wizard) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.Clear()
	w.step = StepTravelDetails
}

func validateTravel(p Partial) error {
	required := []struct {
		field string
		value *string
	}{
		{"origin.country", p.OriginCountry},
		{"origin.city", p.OriginCity},
		{"destination.country", p.DestinationCountry},
		{"destination.city", p.DestinationCity},
	}
	for _, r := range required {
		if r.value == nil || *r.value == "" {
			return &ValidationError{Field: r.field, Message: "required"}
		}
	}
	if p.DepartureAt == nil || p.DepartureAt.IsZero() {
		return &ValidationError{Field: "departureAt", Message: "required"}
	}
	if p.ArrivalAt == nil || p.ArrivalAt.IsZero() {
		return &ValidationError{Field: "arrivalAt", Message: "required"}
	}
	if !p.ArrivalAt.After(*p.DepartureAt) {
		return &ValidationError{Field: "arrivalAt", Message: "must be after departure"}
	}
	if p.Mode == nil || !p.Mode.Valid() {
		return &ValidationError{Field: "mode", Message: "must be FLIGHT or CAR"}
	}

	// Mode-conditional fields are mutually exclusive; only one is ever set.
	switch *p.Mode {
	case models.ModeFlight:
		if p.FlightNumber == nil || *p.FlightNumber == "" {
			return &ValidationError{Field: "flightNumber", Message: "required for FLIGHT trips"}
		}
		if p.VehiclePlate != nil && *p.VehiclePlate != "" {
			return &ValidationError{Field: "vehiclePlate", Message: "not allowed for FLIGHT trips"}
		}
	case models.ModeCar:
		if p.VehiclePlate == nil || *p.VehiclePlate == "" {
			return &ValidationError{Field: "vehiclePlate", Message: "required for CAR trips"}
		}
		if p.FlightNumber != nil && *p.FlightNumber != "" {
			return &ValidationError{Field: "flightNumber", Message: "not allowed for CAR trips"}
		}
	}
	return nil
}

func validatePackage(p Partial) error {
	if len(p.AllowedCategories) == 0 {
		return &ValidationError{Field: "allowedCategories", Message: "at least one category required"}
	}
	dims := []struct {
		field string
		value *float64
	}{
		{"maxWeightKg", p.MaxWeightKg},
		{"maxHeightCm", p.MaxHeightCm},
		{"maxWidthCm", p.MaxWidthCm},
		{"maxLengthCm", p.MaxLengthCm},
	}
	for _, d := range dims {
		if d.value == nil || *d.value <= 0 {
			return &ValidationError{Field: d.field, Message: "must be positive"}
		}
	}
	return nil
}
