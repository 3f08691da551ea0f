package workflow

import (
	"context"
	"fmt"

	"packmate/kyc"
	"packmate/models"
	"packmate/session"
	"packmate/utils"

	"go.uber.org/zap"
)

// DocumentSubmitter is the slice of the API client the KYC runner needs.
type DocumentSubmitter interface {
	SubmitDocumentVerification(ctx context.Context, req models.DocumentVerificationRequest) error
}

// KYCRunner owns the terminal step of the KYC flow: it assembles the payload
// from the draft and the session and reports the outcome back into the state
// machine. Completeness is enforced by the flow's transition gating, not
// re-checked here.
type KYCRunner struct {
	liveness
	guard     inFlightGuard
	flow      *kyc.Flow
	submitter DocumentSubmitter
	sess      *session.Store
}

// NewKYCRunner creates a runner for one flow instance.
func NewKYCRunner(flow *kyc.Flow, submitter DocumentSubmitter, sess *session.Store) *KYCRunner {
	return &KYCRunner{flow: flow, submitter: submitter, sess: sess}
}

// Submit moves the flow into Submitting and sends the payload. Success is
// terminal and resets the draft; failure returns the flow to the selfie step
// for retry with the draft intact.
func (r *KYCRunner) Submit(ctx context.Context) error {
	if err := r.guard.begin(); err != nil {
		return err
	}
	defer r.guard.end()

	if r.flow.State() == kyc.StateSelfieCapture {
		if err := r.flow.Advance(); err != nil {
			return err
		}
	}
	if r.flow.State() != kyc.StateSubmitting {
		return fmt.Errorf("workflow: kyc flow not ready to submit (state %s)", r.flow.State())
	}

	payload := r.flow.Draft().BuildPayload(r.sess.UserID())
	submitErr := r.submitter.SubmitDocumentVerification(ctx, payload)

	if !r.alive() {
		// Screen torn down mid-flight; leave the state machine alone.
		return submitErr
	}

	logger := utils.GetLogger()
	if submitErr != nil {
		if err := r.flow.Fail(); err != nil {
			logger.Warn("workflow: kyc flow refused failure transition", zap.Error(err))
		}
		if err := r.flow.Retry(); err != nil {
			logger.Warn("workflow: kyc flow refused retry transition", zap.Error(err))
		}
		return submitErr
	}
	if err := r.flow.Succeed(); err != nil {
		logger.Warn("workflow: kyc flow refused success transition", zap.Error(err))
	}
	logger.Info("workflow: kyc submission accepted", zap.String("attempt", r.flow.AttemptID()))
	return nil
}
