package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/portfolio/backend/internal/mail"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
)

// DefaultMailTimeout bounds each notification send when no timeout is configured.
const DefaultMailTimeout = 10 * time.Second

// ContactOptions tunes the submission workflow. Zero values use defaults.
type ContactOptions struct {
	MailTimeout time.Duration
	Observer    SubmissionObserver
}

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo        repository.ContactRepository
	sender      mail.Sender
	composer    *mail.Composer
	mailTimeout time.Duration
	observer    SubmissionObserver
}

// NewContactService creates a ContactService that stores messages in repo and
// delivers notifications composed by composer through sender.
func NewContactService(repo repository.ContactRepository, sender mail.Sender, composer *mail.Composer, opts ContactOptions) ContactService {
	s := &contactServiceImpl{
		repo:        repo,
		sender:      sender,
		composer:    composer,
		mailTimeout: opts.MailTimeout,
		observer:    opts.Observer,
	}
	if s.mailTimeout <= 0 {
		s.mailTimeout = DefaultMailTimeout
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	return s
}

// Submit runs validate → persist → notify owner → acknowledge sender, strictly
// in that order. The stored record is not rolled back when the owner alert
// fails; the caller is told the submission failed even though it was saved.
func (s *contactServiceImpl) Submit(ctx context.Context, in model.ContactInput) (*model.ContactMessage, error) {
	if err := ValidateContactInput(in); err != nil {
		s.observer.ObserveSubmission(OutcomeRejectedValidation)
		return nil, err
	}

	msg := &model.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		s.observer.ObserveSubmission(OutcomeFailedStorage)
		return nil, fmt.Errorf("%w: save contact message: %w", ErrStorage, err)
	}
	slog.InfoContext(ctx, "contact message stored", "id", msg.ID)

	// Notifications outlive a disconnecting client; the record already exists.
	mailCtx := context.WithoutCancel(ctx)

	if err := s.notify(mailCtx, s.composer.OwnerNotification, in); err != nil {
		slog.ErrorContext(ctx, "owner notification failed", "id", msg.ID, "error", err)
		s.observer.ObserveSubmission(OutcomeFailedNotification)
		return nil, fmt.Errorf("%w: message %d: %w", ErrNotification, msg.ID, err)
	}

	if err := s.notify(mailCtx, s.composer.AutoReply, in); err != nil {
		slog.WarnContext(ctx, "auto-reply failed", "id", msg.ID, "error", err)
		s.observer.ObserveAcknowledgmentFailure()
	}

	s.observer.ObserveSubmission(OutcomeSucceeded)
	return msg, nil
}

// notify builds one email and sends it under its own timeout.
func (s *contactServiceImpl) notify(ctx context.Context, build func(model.ContactInput) (mail.Message, error), in model.ContactInput) error {
	m, err := build(in)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	return s.sender.Send(ctx, m)
}

// List returns all contact messages, oldest first. An empty store yields an
// empty slice.
func (s *contactServiceImpl) List(ctx context.Context) ([]*model.ContactMessage, error) {
	messages, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list contact messages: %w", ErrStorage, err)
	}
	if messages == nil {
		messages = []*model.ContactMessage{}
	}
	return messages, nil
}
