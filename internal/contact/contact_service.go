package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/vhoang/folio/internal/audit"
	mailer "github.com/vhoang/folio/internal/mail"
	"github.com/vhoang/folio/model"
)

var (
	ErrRateLimited    = errors.New("too many contact submissions")
	ErrInvalidMessage = errors.New("invalid contact message")
)

const (
	maxNameLength    = 100
	maxMessageLength = 5000
)

type Message struct {
	Name    string
	Email   string
	Message string
}

type SubmitInfo struct {
	IP        string
	UserAgent string
}

// Service accepts contact-form submissions: validate, rate limit per client,
// persist, then notify by mail without making the sender wait on SMTP.
type Service struct {
	repo     Repository
	sender   mailer.Sender
	notifyTo string
	auditLog *audit.Log
	limiter  *ipLimiter
}

func NewService(repo Repository, sender mailer.Sender, notifyTo string, auditLog *audit.Log, burst int, refillEvery time.Duration) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		notifyTo: notifyTo,
		auditLog: auditLog,
		limiter:  newIPLimiter(burst, refillEvery),
	}
}

// StartJanitor prunes idle limiter buckets until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context) {
	s.limiter.Janitor(ctx)
}

func validate(msg Message) error {
	if msg.Name == "" || len(msg.Name) > maxNameLength {
		return fmt.Errorf("%w: name", ErrInvalidMessage)
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("%w: email", ErrInvalidMessage)
	}
	if msg.Message == "" || len(msg.Message) > maxMessageLength {
		return fmt.Errorf("%w: message", ErrInvalidMessage)
	}
	return nil
}

// Submit stores the message and returns a reference the sender can quote.
func (s *Service) Submit(ctx context.Context, info SubmitInfo, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	if !s.limiter.Allow(info.IP) {
		return "", ErrRateLimited
	}

	reference := uuid.NewString()
	record := &model.ContactMessage{
		ID:        model.GenerateID(),
		Reference: reference,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		IP:        info.IP,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", err
	}

	s.auditLog.Record(ctx, audit.Entry{
		Action:     audit.ActionContactReceived,
		Resource:   audit.ResourceContact,
		ResourceID: reference,
		Actor:      msg.Email,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
	})

	// fire and forget: delivery trouble must not fail the submission
	go s.notify(msg, reference)
	return reference, nil
}

func (s *Service) notify(msg Message, reference string) {
	if s.notifyTo == "" {
		return
	}
	body, err := mailer.RenderContactNotification(mailer.ContactNotification{
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		Reference: reference,
	})
	if err != nil {
		slog.Error("Could not render contact notification", "error", err)
		return
	}
	notification := &mailer.Message{
		To:      []string{s.notifyTo},
		Subject: fmt.Sprintf("New contact message from %s", msg.Name),
		Body:    body,
		IsHTML:  true,
	}
	if err := s.sender.Send(notification); err != nil {
		slog.Error("Could not send contact notification", "reference", reference, "error", err)
	}
}
