// Package auth issues and verifies the signed session tokens of founders and library admins.
package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

// Role tags the principal a token was issued to.
type Role string

const (
	RoleFounder      Role = "founder"
	RoleLibraryAdmin Role = "library_admin"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidToken = core.NewAuthError("invalid token")
	ErrTokenExpired = core.NewAuthError("token expired")
	ErrWrongRole    = core.NewPermissionError("access denied for this role")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role       Role   `json:"role"`
	FounderID  string `json:"founderId,omitempty"`
	Email      string `json:"email,omitempty"`
	LibraryID  string `json:"libraryId,omitempty"`
	AdminEmail string `json:"adminEmail,omitempty"`
}

// Principal is the authenticated caller: either a Founder or a TenantAdmin.
type Principal interface {
	Role() Role
	isPrincipal()
}

// Founder is a platform operator.
type Founder struct {
	ID    string
	Email string
}

func (Founder) Role() Role  { return RoleFounder }
func (Founder) isPrincipal() {}

// TenantAdmin is the administrator of a single library.
type TenantAdmin struct {
	LibraryID  string
	AdminEmail string
}

func (TenantAdmin) Role() Role  { return RoleLibraryAdmin }
func (TenantAdmin) isPrincipal() {}

// AsFounder returns the founder behind p, or ErrWrongRole.
func AsFounder(p Principal) (Founder, error) {
	if f, ok := p.(Founder); ok {
		return f, nil
	}
	return Founder{}, ErrWrongRole
}

// AsTenantAdmin returns the library admin behind p, or ErrWrongRole.
func AsTenantAdmin(p Principal) (TenantAdmin, error) {
	if a, ok := p.(TenantAdmin); ok {
		return a, nil
	}
	return TenantAdmin{}, ErrWrongRole
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

func NewTokens(conf *core.Config) *Tokens {
	return &Tokens{
		key:    []byte(conf.SecretKey),
		ttl:    conf.Server.JWTExpirationDelta,
		issuer: conf.AppName,
	}
}

// TTL is how long issued tokens stay valid.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

func (t *Tokens) standardClaims(subject string) jwt.StandardClaims {
	now := NowFunc()
	return jwt.StandardClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(t.ttl).Unix(),
	}
}

func (t *Tokens) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(t.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (t *Tokens) IssueFounder(founderID, email string) (string, error) {
	return t.sign(&Claims{
		StandardClaims: t.standardClaims(founderID),
		Role:           RoleFounder,
		FounderID:      founderID,
		Email:          email,
	})
}

func (t *Tokens) IssueTenantAdmin(libraryID, adminEmail string) (string, error) {
	return t.sign(&Claims{
		StandardClaims: t.standardClaims(libraryID),
		Role:           RoleLibraryAdmin,
		LibraryID:      libraryID,
		AdminEmail:     adminEmail,
	})
}

// Verify checks the signature and expiry of a token and returns the principal it was issued to.
func (t *Tokens) Verify(tokenStr string) (Principal, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	switch claims.Role {
	case RoleFounder:
		if claims.FounderID == "" {
			return nil, ErrInvalidToken
		}
		return Founder{ID: claims.FounderID, Email: claims.Email}, nil
	case RoleLibraryAdmin:
		if claims.LibraryID == "" {
			return nil, ErrInvalidToken
		}
		return TenantAdmin{LibraryID: claims.LibraryID, AdminEmail: claims.AdminEmail}, nil
	default:
		return nil, ErrInvalidToken
	}
}
