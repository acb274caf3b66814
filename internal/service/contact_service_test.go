package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/portfolio/backend/internal/mail"
	"github.com/portfolio/backend/internal/model"
)

// ---------------------------------------------------------------------------
// mockContactRepository: in-memory stub for testing
// ---------------------------------------------------------------------------

type mockContactRepository struct {
	saveFunc func(ctx context.Context, msg *model.ContactMessage) error
	listFunc func(ctx context.Context) ([]*model.ContactMessage, error)

	mu     sync.Mutex
	nextID int64
	saved  []*model.ContactMessage
}

func (m *mockContactRepository) Save(ctx context.Context, msg *model.ContactMessage) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now().UTC()
	cp := *msg
	m.saved = append(m.saved, &cp)
	return nil
}

func (m *mockContactRepository) List(ctx context.Context) ([]*model.ContactMessage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.ContactMessage(nil), m.saved...), nil
}

func (m *mockContactRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// ---------------------------------------------------------------------------
// mockSender / recordingObserver
// ---------------------------------------------------------------------------

type mockSender struct {
	sendFunc func(ctx context.Context, msg mail.Message) error

	mu   sync.Mutex
	sent []mail.Message
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return nil
}

func (m *mockSender) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type recordingObserver struct {
	outcomes []string
	ackFails int
}

func (o *recordingObserver) ObserveSubmission(outcome string) { o.outcomes = append(o.outcomes, outcome) }
func (o *recordingObserver) ObserveAcknowledgmentFailure()    { o.ackFails++ }

const ownerAddr = "owner@example.com"

func newTestContactService(repo *mockContactRepository, sender *mockSender, obs *recordingObserver) ContactService {
	return NewContactService(repo, sender, mail.NewComposer(ownerAddr, "Portfolio Owner"), ContactOptions{
		MailTimeout: 100 * time.Millisecond,
		Observer:    obs,
	})
}

func validInput() model.ContactInput {
	return model.ContactInput{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Hello",
		Message: "This is a test message.",
	}
}

// ---------------------------------------------------------------------------
// Submit tests
// ---------------------------------------------------------------------------

func TestContactService_Submit_Success(t *testing.T) {
	repo := &mockContactRepository{}
	sender := &mockSender{}
	obs := &recordingObserver{}
	svc := newTestContactService(repo, sender, obs)

	got, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("expected id=1, got %d", got.ID)
	}
	if got.Name != "Jane Doe" || got.Subject != "Hello" {
		t.Errorf("unexpected record %+v", got)
	}
	if repo.count() != 1 {
		t.Errorf("expected exactly one stored record, got %d", repo.count())
	}

	sent := sender.messages()
	if len(sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sent))
	}
	if sent[0].To != ownerAddr {
		t.Errorf("first email should go to the owner, got %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, "Hello") {
		t.Errorf("owner subject should carry the submission subject, got %q", sent[0].Subject)
	}
	if sent[1].To != "jane@example.com" {
		t.Errorf("second email should go to the submitter, got %q", sent[1].To)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeSucceeded {
		t.Errorf("expected succeeded outcome, got %v", obs.outcomes)
	}
}

func TestContactService_Submit_IDsIncrease(t *testing.T) {
	repo := &mockContactRepository{}
	svc := newTestContactService(repo, &mockSender{}, &recordingObserver{})

	var last int64
	for i := 0; i < 5; i++ {
		got, err := svc.Submit(context.Background(), validInput())
		if err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
		if got.ID <= last {
			t.Errorf("submission %d: id %d not greater than %d", i, got.ID, last)
		}
		last = got.ID
	}
}

func TestContactService_Submit_InvalidEmail(t *testing.T) {
	for _, email := range []string{
		"not-an-email",
		"jane@example",
		"jane@example.c",
		"@example.com",
		"jane doe@example.com",
		"jane@exa mple.com",
		"jane@example.com\n",
	} {
		t.Run(email, func(t *testing.T) {
			repo := &mockContactRepository{}
			sender := &mockSender{}
			svc := newTestContactService(repo, sender, &recordingObserver{})

			in := validInput()
			in.Email = email
			_, err := svc.Submit(context.Background(), in)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Message != MsgInvalidEmail {
				t.Errorf("expected %q, got %q", MsgInvalidEmail, verr.Message)
			}
			if repo.count() != 0 {
				t.Error("no record should be stored for an invalid email")
			}
			if len(sender.messages()) != 0 {
				t.Error("no email should be sent for an invalid email")
			}
		})
	}
}

func TestContactService_Submit_MessageLength(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantMsg string
	}{
		{"short", "short", MsgMessageTooShort},
		{"nine chars", strings.Repeat("a", 9), MsgMessageTooShort},
		{"ten chars", strings.Repeat("a", 10), ""},
		{"thousand chars", strings.Repeat("a", 1000), ""},
		{"too long", strings.Repeat("a", 1001), MsgMessageTooLong},
		{"ten multibyte runes", strings.Repeat("é", 10), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockContactRepository{}
			svc := newTestContactService(repo, &mockSender{}, &recordingObserver{})

			in := validInput()
			in.Message = tt.message
			_, err := svc.Submit(context.Background(), in)

			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if repo.count() != 1 {
					t.Errorf("expected record stored, got %d", repo.count())
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Message != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, verr.Message)
			}
			if repo.count() != 0 {
				t.Error("no record should be stored")
			}
		})
	}
}

func TestContactService_Submit_MissingFields(t *testing.T) {
	repo := &mockContactRepository{}
	obs := &recordingObserver{}
	svc := newTestContactService(repo, &mockSender{}, obs)

	_, err := svc.Submit(context.Background(), model.ContactInput{Email: "jane@example.com", Subject: "  "})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Message != MsgRequiredFields {
		t.Errorf("expected %q, got %q", MsgRequiredFields, verr.Message)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"name", "subject", "message"} {
		if !fields[want] {
			t.Errorf("expected field error for %q, got %+v", want, verr.Fields)
		}
	}
	if fields["email"] {
		t.Error("email was present and should not be reported")
	}
	if repo.count() != 0 {
		t.Error("no record should be stored")
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeRejectedValidation {
		t.Errorf("expected rejected_validation, got %v", obs.outcomes)
	}
}

func TestContactService_Submit_StorageError(t *testing.T) {
	repo := &mockContactRepository{
		saveFunc: func(ctx context.Context, msg *model.ContactMessage) error {
			return errors.New("db write failed")
		},
	}
	sender := &mockSender{}
	obs := &recordingObserver{}
	svc := newTestContactService(repo, sender, obs)

	_, err := svc.Submit(context.Background(), validInput())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Error("no email should be sent when storage fails")
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeFailedStorage {
		t.Errorf("expected failed_storage, got %v", obs.outcomes)
	}
}

func TestContactService_Submit_OwnerNotificationFails(t *testing.T) {
	repo := &mockContactRepository{}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, msg mail.Message) error {
			if msg.To == ownerAddr {
				return errors.New("smtp: 535 authentication failed")
			}
			return nil
		},
	}
	obs := &recordingObserver{}
	svc := newTestContactService(repo, sender, obs)

	_, err := svc.Submit(context.Background(), validInput())
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if repo.count() != 1 {
		t.Errorf("record must stay persisted after an owner notification failure, got %d", repo.count())
	}
	if n := len(sender.messages()); n != 1 {
		t.Errorf("acknowledgment must not be attempted after owner failure, got %d sends", n)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeFailedNotification {
		t.Errorf("expected failed_notification, got %v", obs.outcomes)
	}
}

func TestContactService_Submit_AcknowledgmentFailureSwallowed(t *testing.T) {
	repo := &mockContactRepository{}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, msg mail.Message) error {
			if msg.To != ownerAddr {
				return errors.New("mailbox unavailable")
			}
			return nil
		},
	}
	obs := &recordingObserver{}
	svc := newTestContactService(repo, sender, obs)

	got, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("acknowledgment failure must not fail the submission: %v", err)
	}
	if got == nil || got.ID == 0 {
		t.Fatal("expected stored record")
	}
	if obs.ackFails != 1 {
		t.Errorf("expected one acknowledgment failure observed, got %d", obs.ackFails)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeSucceeded {
		t.Errorf("expected succeeded, got %v", obs.outcomes)
	}
}

func TestContactService_Submit_OwnerNotificationTimeout(t *testing.T) {
	repo := &mockContactRepository{}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, msg mail.Message) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	svc := newTestContactService(repo, sender, &recordingObserver{})

	start := time.Now()
	_, err := svc.Submit(context.Background(), validInput())
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline to be the cause, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not applied, took %v", elapsed)
	}
}

func TestContactService_Submit_ClientCancelDoesNotAbortMail(t *testing.T) {
	repo := &mockContactRepository{}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, msg mail.Message) error {
			return ctx.Err()
		},
	}
	svc := newTestContactService(repo, sender, &recordingObserver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Submit(ctx, validInput()); err != nil {
		t.Fatalf("notifications should not inherit client cancellation: %v", err)
	}
	if n := len(sender.messages()); n != 2 {
		t.Errorf("expected both emails attempted, got %d", n)
	}
}

// ---------------------------------------------------------------------------
// List tests
// ---------------------------------------------------------------------------

func TestContactService_List_EmptyIsNotNil(t *testing.T) {
	repo := &mockContactRepository{
		listFunc: func(ctx context.Context) ([]*model.ContactMessage, error) {
			return nil, nil
		},
	}
	svc := newTestContactService(repo, &mockSender{}, &recordingObserver{})

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestContactService_List_OrderAndIdempotence(t *testing.T) {
	repo := &mockContactRepository{}
	svc := newTestContactService(repo, &mockSender{}, &recordingObserver{})

	a := validInput()
	a.Subject = "A"
	b := validInput()
	b.Subject = "B"
	if _, err := svc.Submit(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), b); err != nil {
		t.Fatal(err)
	}

	first, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 2 || first[0].Subject != "A" || first[1].Subject != "B" {
		t.Fatalf("expected A before B, got %+v", first)
	}
	if len(second) != len(first) {
		t.Fatalf("repeated reads differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Errorf("repeated reads differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestContactService_List_RepositoryError(t *testing.T) {
	repo := &mockContactRepository{
		listFunc: func(ctx context.Context) ([]*model.ContactMessage, error) {
			return nil, errors.New("db read failed")
		},
	}
	svc := newTestContactService(repo, &mockSender{}, &recordingObserver{})

	_, err := svc.List(context.Background())
	if !errors.Is(err, ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}
