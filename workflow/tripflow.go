package workflow

import (
	"context"

	"packmate/models"
	"packmate/shipment"
	"packmate/utils"

	"go.uber.org/zap"
)

// TripCreator is the slice of the API client the trip runner needs.
type TripCreator interface {
	CreateTrip(ctx context.Context, draft models.ShipmentDraft) error
}

// TripRunner drives the two-step trip wizard and its terminal submission.
// Step validation lives in the wizard; the runner adds the single-in-flight
// guard and the network round trip.
type TripRunner struct {
	liveness
	guard   inFlightGuard
	wizard  *shipment.Wizard
	store   *shipment.Store
	creator TripCreator
}

// NewTripRunner creates a runner over the wizard and its draft store.
func NewTripRunner(wizard *shipment.Wizard, store *shipment.Store, creator TripCreator) *TripRunner {
	return &TripRunner{wizard: wizard, store: store, creator: creator}
}

// SubmitTravelDetails validates and records step one.
func (r *TripRunner) SubmitTravelDetails(p shipment.Partial) error {
	return r.wizard.SubmitTravelDetails(p)
}

// SubmitPackageDetails validates step two and submits the completed trip.
// On success traveler mode activates and the draft is cleared; on failure
// the draft survives so the traveler can retry without re-entering data.
func (r *TripRunner) SubmitPackageDetails(ctx context.Context, p shipment.Partial) error {
	if err := r.guard.begin(); err != nil {
		return err
	}
	defer r.guard.end()

	if err := r.wizard.SubmitPackageDetails(p); err != nil {
		return err
	}

	createErr := r.creator.CreateTrip(ctx, r.store.Draft())

	if !r.alive() {
		return createErr
	}

	logger := utils.GetLogger()
	if createErr != nil {
		if err := r.wizard.Fail(); err != nil {
			logger.Warn("workflow: trip wizard refused failure transition", zap.Error(err))
		}
		if err := r.wizard.Retry(); err != nil {
			logger.Warn("workflow: trip wizard refused retry transition", zap.Error(err))
		}
		return createErr
	}
	if err := r.wizard.Complete(); err != nil {
		logger.Warn("workflow: trip wizard refused completion", zap.Error(err))
	}
	logger.Info("workflow: trip created, traveler mode active")
	return nil
}

// Cancel abandons the wizard and clears the draft.
func (r *TripRunner) Cancel() {
	r.wizard.Cancel()
}
