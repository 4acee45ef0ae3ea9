package identity

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type adminRepo interface {
	GetByID(ctx context.Context, id string) (*domain.AdminUser, error)
	Create(ctx context.Context, a domain.AdminUser) (*domain.AdminUser, error)
	TouchLastLogin(ctx context.Context, id string) (*domain.AdminUser, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string) (*domain.User, error)
}

// Service maps authenticated principals to their storefront role.
// Admin records take precedence over client records for the same id.
type Service struct {
	admins adminRepo
	users  userRepo
	logger logrus.FieldLogger
}

func New(admins adminRepo, users userRepo, logger logrus.FieldLogger) *Service {
	return &Service{admins: admins, users: users, logger: logging.OrDiscard(logger).WithField("service", "identity")}
}

// Resolve runs on every sign-in. It refreshes lastLogin on the matching
// record and provisions a client record when the principal has none.
func (s *Service) Resolve(ctx context.Context, p domain.Principal) (*domain.Identity, error) {
	a, err := s.admins.TouchLastLogin(ctx, p.ID)
	switch {
	case err == nil:
		return &domain.Identity{Kind: domain.RoleAdmin, Admin: a}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, s.fail("resolve admin", err)
	}

	u, err := s.users.TouchLastLogin(ctx, p.ID)
	switch {
	case err == nil:
		return &domain.Identity{Kind: domain.RoleClient, User: u}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, s.fail("resolve user", err)
	}

	u, err = s.users.Create(ctx, domain.User{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: DisplayName(p),
		Role:        domain.RoleClient,
	})
	if err != nil {
		return nil, s.fail("provision user", err)
	}
	s.logger.WithField("principal_id", p.ID).Info("client provisioned")
	return &domain.Identity{Kind: domain.RoleClient, User: u}, nil
}

// Lookup reads the identity without side effects. A principal with neither
// record yields domain.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, principalID string) (*domain.Identity, error) {
	a, err := s.admins.GetByID(ctx, principalID)
	if err == nil {
		return &domain.Identity{Kind: domain.RoleAdmin, Admin: a}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.fail("lookup admin", err)
	}
	u, err := s.users.GetByID(ctx, principalID)
	if err != nil {
		return nil, s.fail("lookup user", err)
	}
	return &domain.Identity{Kind: domain.RoleClient, User: u}, nil
}

// ProvisionAdmin grants back-office access to an existing principal.
func (s *Service) ProvisionAdmin(ctx context.Context, p domain.Principal, displayName string) (*domain.AdminUser, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = DisplayName(p)
	}
	a, err := s.admins.Create(ctx, domain.AdminUser{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: displayName,
		Role:        domain.RoleAdmin,
		Permissions: domain.FullPermissions,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		return nil, s.fail("provision admin", err)
	}
	s.logger.WithField("principal_id", p.ID).Info("admin provisioned")
	return a, nil
}

// DisplayName falls back to the local part of the email.
func DisplayName(p domain.Principal) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

func (s *Service) fail(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.logger.WithError(err).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}
