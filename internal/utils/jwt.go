package utils // package utils provides token issuing, hashing and password helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/model"
)

// Token kinds carried in the "typ" claim. Access and refresh tokens are
// also signed with different keys, so the claim is a second line of defence
// against presenting one kind where the other is expected.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Identity is the set of user attributes embedded in tokens.
type Identity struct {
	ID    uint64
	Email string
	Role  model.Role
}

// Claims is the JWT payload for both token kinds. Refresh tokens leave Role
// empty. RegisteredClaims.ID holds a random jti so two tokens issued for the
// same user within one second are still distinct.
type Claims struct {
	UserID uint64     `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role,omitempty"`
	Type   string     `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the identity portion of c.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// SignedToken is a serialized JWT along with its expiry.
type SignedToken struct {
	Token     string
	ExpiresAt time.Time
}

// IssuerConfig carries the key material and lifetimes for an Issuer.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer creates and verifies access and refresh tokens.
type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// IssuerOption customises an Issuer.
type IssuerOption func(*Issuer)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates cfg and returns an Issuer. Both secrets are required
// and must differ.
func NewIssuer(cfg IssuerConfig, opts ...IssuerOption) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token issuer: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token issuer: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token issuer: token lifetimes must be positive")
	}
	i := &Issuer{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// IssueAccess signs a short-lived access token carrying id, email and role.
func (i *Issuer) IssueAccess(id Identity) (SignedToken, error) {
	return i.sign(i.accessKey, i.accessTTL, Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		Type:   TypeAccess,
	})
}

// IssueRefresh signs a long-lived refresh token carrying id and email.
func (i *Issuer) IssueRefresh(id Identity) (SignedToken, error) {
	return i.sign(i.refreshKey, i.refreshTTL, Claims{
		UserID: id.ID,
		Email:  id.Email,
		Type:   TypeRefresh,
	})
}

func (i *Issuer) sign(key []byte, ttl time.Duration, c Claims) (SignedToken, error) {
	now := i.now().UTC()
	exp := now.Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(c.UserID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, ExpiresAt: exp}, nil
}

// VerifyAccess checks an access token's signature and expiry. Expired
// tokens yield an apperrors.KindTokenExpired error; every other failure
// yields apperrors.KindInvalidToken.
func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, i.accessKey, TypeAccess)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, i.refreshKey, TypeRefresh)
}

func (i *Issuer) verify(raw string, key []byte, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.Wrap(apperrors.KindTokenExpired, apperrors.ErrTokenExpired.Message, err)
	case err != nil:
		return nil, apperrors.Wrap(apperrors.KindInvalidToken, apperrors.ErrInvalidToken.Message, err)
	case claims.Type != typ || claims.UserID == 0:
		return nil, apperrors.New(apperrors.KindInvalidToken, apperrors.ErrInvalidToken.Message)
	}
	return claims, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
// Only the digest is persisted.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
