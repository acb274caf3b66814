package service

import (
	"context"

	"github.com/portfolio/backend/internal/model"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates in, stores it, alerts the site owner and acknowledges
	// the sender. It returns the stored record, or a *ValidationError,
	// ErrStorage or ErrNotification. A failed acknowledgment is not an error.
	Submit(ctx context.Context, in model.ContactInput) (*model.ContactMessage, error)

	// List returns every stored contact message, oldest first.
	List(ctx context.Context) ([]*model.ContactMessage, error)
}

// Submission outcomes reported to a SubmissionObserver.
const (
	OutcomeSucceeded          = "succeeded"
	OutcomeRejectedValidation = "rejected_validation"
	OutcomeFailedStorage      = "failed_storage"
	OutcomeFailedNotification = "failed_notification"
)

// SubmissionObserver receives the terminal outcome of every submission.
type SubmissionObserver interface {
	ObserveSubmission(outcome string)
	ObserveAcknowledgmentFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveSubmission(string)      {}
func (noopObserver) ObserveAcknowledgmentFailure() {}
