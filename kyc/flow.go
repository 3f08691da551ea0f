package kyc

import (
	"fmt"
	"sync"

	"packmate/models"

	"github.com/google/uuid"
)

// FlowState is a step in the KYC capture sequence.
type FlowState string

const (
	StateDocumentTypeSelect FlowState = "document_type_select"
	StateFrontCapture       FlowState = "front_capture"
	StateBackCapture        FlowState = "back_capture"
	StateSelfieCapture      FlowState = "selfie_capture"
	StateSubmitting         FlowState = "submitting"
	StateSuccess            FlowState = "success"
	StateFailure            FlowState = "failure"
)

// Flow is the KYC state machine:
//
//	DocumentTypeSelect -> FrontCapture -> BackCapture -> SelfieCapture
//	  -> Submitting -> Success (terminal, resets the draft)
//	               -> Failure -> SelfieCapture (retry)
//
// Each forward transition requires the current step's field to be present in
// the draft.
type Flow struct {
	mu        sync.Mutex
	state     FlowState
	draft     *Draft
	attemptID string
}

// NewFlow starts a flow over the given draft.
func NewFlow(draft *Draft) *Flow {
	return &Flow{
		state:     StateDocumentTypeSelect,
		draft:     draft,
		attemptID: uuid.New().String(),
	}
}

// State returns the current step.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the draft this flow accumulates into.
func (f *Flow) Draft() *Draft { return f.draft }

// AttemptID identifies this flow instance, for log correlation.
func (f *Flow) AttemptID() string { return f.attemptID }

// Advance moves to the next step, enforcing the current step's entry
// requirement on the draft.
func (f *Flow) Advance() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateDocumentTypeSelect:
		if f.draft.DocumentType() == "" {
			return fmt.Errorf("kyc: document type not selected")
		}
		f.state = StateFrontCapture
	case StateFrontCapture:
		if !f.draft.HasImage(models.SlotFront) {
			return fmt.Errorf("kyc: front image not captured")
		}
		f.state = StateBackCapture
	case StateBackCapture:
		if !f.draft.HasImage(models.SlotBack) {
			return fmt.Errorf("kyc: back image not captured")
		}
		f.state = StateSelfieCapture
	case StateSelfieCapture:
		if !f.draft.HasImage(models.SlotSelfie) {
			return fmt.Errorf("kyc: selfie not captured")
		}
		f.state = StateSubmitting
	default:
		return fmt.Errorf("kyc: cannot advance from %s", f.state)
	}
	return nil
}

// Succeed marks the submission accepted. Terminal; the draft is reset so a
// later KYC attempt starts clean.
func (f *Flow) Succeed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSubmitting {
		return fmt.Errorf("kyc: cannot succeed from %s", f.state)
	}
	f.state = StateSuccess
	f.draft.Reset()
	return nil
}

// Fail marks the submission rejected. The draft is kept so the user can
// retry without recapturing everything.
func (f *Flow) Fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSubmitting {
		return fmt.Errorf("kyc: cannot fail from %s", f.state)
	}
	f.state = StateFailure
	return nil
}

// Retry returns control to the selfie step after a failure.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateFailure {
		return fmt.Errorf("kyc: cannot retry from %s", f.state)
	}
	f.state = StateSelfieCapture
	return nil
}

// Abandon resets the draft and ends the flow without submitting.
func (f *Flow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateFailure
	f.draft.Reset()
}
