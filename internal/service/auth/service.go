package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"storefront/internal/domain"
	"storefront/internal/logging"
	principalrepo "storefront/internal/repository/principal"
	tokenrepo "storefront/internal/repository/token"
)

type identityResolver interface {
	Resolve(ctx context.Context, p domain.Principal) (*domain.Identity, error)
}

// Service is the identity provider: accounts, passwords and access tokens.
type Service struct {
	repo        principalrepo.Repository
	tokens      *tokenManager
	identities  identityResolver
	accessTTL   time.Duration
	passwordMin int
	logger      logrus.FieldLogger
}

// New creates a Service with the storefront defaults.
func New(repo principalrepo.Repository, tokens tokenrepo.Repository, identities identityResolver, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		identities:  identities,
		accessTTL:   48 * time.Hour,
		passwordMin: 6,
		logger:      logging.OrDiscard(logger).WithField("service", "auth"),
	}
}

// SignUpInput captures fields expected by the signup endpoint.
type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Principal   domain.Principal `json:"principal"`
	Identity    domain.Identity  `json:"identity"`
	AccessToken string           `json:"accessToken"`
	ExpiresIn   int              `json:"expiresIn"`
}

// SignUp registers a principal, provisions its client record and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.Invalid("email", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalid("email", "invalid address")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, s.fail("hash password", err)
	}

	p, err := s.repo.Create(ctx, domain.Principal{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(in.DisplayName),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		return nil, s.fail("create principal", err)
	}
	s.logger.WithField("principal_id", p.ID).Info("principal registered")
	return s.open(ctx, *p)
}

// SignIn validates credentials and issues an access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	p, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, *p)
}

// SignInAdmin is SignIn restricted to principals with an admin record.
// No token is left behind for a rejected principal.
func (s *Service) SignInAdmin(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !sess.Identity.IsAdmin() {
		if err := s.tokens.Revoke(ctx, sess.AccessToken); err != nil {
			s.logger.WithError(err).Warn("revoke non-admin token failed")
		}
		return nil, domain.ErrNotAdmin
	}
	return sess, nil
}

// SignOut revokes token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return s.fail("revoke token", err)
	}
	return nil
}

// LookupByToken returns the principal bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Principal, error) {
	principalID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, s.fail("lookup principal", err)
	}
	return p, nil
}

// FindByEmail is used by the operator CLI.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	p, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, s.fail("find principal", err)
	}
	return p, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	password = strings.TrimSpace(password)
	p, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, s.fail("find principal", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return p, nil
}

func (s *Service) open(ctx context.Context, p domain.Principal) (*Session, error) {
	who, err := s.identities.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Issue(ctx, p.ID, s.accessTTL)
	if err != nil {
		return nil, s.fail("issue token", err)
	}
	return &Session{
		Principal:   p,
		Identity:    *who,
		AccessToken: access,
		ExpiresIn:   s.AccessTTLSeconds(),
	}, nil
}

func (s *Service) fail(op string, err error) error {
	s.logger.WithError(err).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}

func validatePassword(p string, min int) error {
	if len([]rune(p)) < min {
		return domain.Invalid("password", fmt.Sprintf("must be at least %d characters", min))
	}
	return nil
}
