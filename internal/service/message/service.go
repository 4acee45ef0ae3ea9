package message

import (
	"context"
	"net/mail"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type messageRepo interface {
	Create(ctx context.Context, m domain.Message) (*domain.Message, error)
	List(ctx context.Context) ([]domain.Message, error)
	MarkRead(ctx context.Context, id string) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)
}

type messageNotifier interface {
	MessageReceived(ctx context.Context, m domain.Message)
}

// Service is the contact inbox.
type Service struct {
	repo     messageRepo
	notifier messageNotifier
	logger   logrus.FieldLogger
}

func New(repo messageRepo, notifier messageNotifier, logger logrus.FieldLogger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logging.OrDiscard(logger).WithField("service", "message")}
}

// Input is a contact-form submission.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Create stores a submission as unread and tells the admin about it.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Message, error) {
	m := domain.Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, s.fail("create message", err)
	}
	s.logger.WithField("message_id", created.ID).Info("message received")
	if s.notifier != nil {
		s.notifier.MessageReceived(ctx, *created)
	}
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list messages", err)
	}
	return msgs, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) (*domain.Message, error) {
	m, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, s.fail("mark message read", err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("delete message", err)
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	n, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, s.fail("count unread messages", err)
	}
	return n, nil
}

func (s *Service) fail(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.logger.WithError(err).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}

func validate(m domain.Message) error {
	switch {
	case m.Name == "":
		return domain.Invalid("name", "required")
	case m.Email == "":
		return domain.Invalid("email", "required")
	case m.Subject == "":
		return domain.Invalid("subject", "required")
	case m.Message == "":
		return domain.Invalid("message", "required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return domain.Invalid("email", "invalid address")
	}
	return nil
}
