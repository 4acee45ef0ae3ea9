package anonymous

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"storefront/internal/domain"
)

const (
	issuer = "storefront-device"
	// OwnerPrefix keeps device cart owners apart from principal ids.
	OwnerPrefix = "anon:"
)

// Service issues signed device tokens for visitors who are not signed in.
// The token subject is the device id that owns the visitor's cart, always
// OwnerPrefix followed by a UUID.
type Service struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret:    []byte(secret),
		accessTTL: ttl,
		now:       time.Now,
	}
}

// Issue mints a token for a fresh device id.
func (s *Service) Issue(_ context.Context) (accessToken, anonymousID string, err error) {
	anonymousID = OwnerPrefix + uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   anonymousID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", errors.Wrap(err, "sign device token")
	}
	return accessToken, anonymousID, nil
}

// LookupByToken returns the device id of a valid, unexpired token.
func (s *Service) LookupByToken(_ context.Context, token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Issuer != issuer || !IsDeviceOwner(claims.Subject) {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// IsDeviceOwner reports whether id has the device owner shape.
func IsDeviceOwner(id string) bool {
	rest, ok := strings.CutPrefix(id, OwnerPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
