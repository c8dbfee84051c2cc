package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload for a cloud-operator session. It carries
// enough of the Session to reconstruct one without a database round trip on
// every request.
type SessionClaims struct {
	jwt.Claims
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AccountType string `json:"account_type"`
	ResellerID  string `json:"reseller_id,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
}

// SessionManager issues and validates signed session tokens.
type SessionManager struct {
	signingKey []byte
	maxAge     time.Duration
}

// NewSessionManager builds a SessionManager. secret must be at least 32
// bytes; shorter keys make HS256 forgeable.
func NewSessionManager(secret string, maxAge time.Duration) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &SessionManager{signingKey: []byte(secret), maxAge: maxAge}, nil
}

// GenerateDevSecret produces a random 32-byte secret, base64-encoded, for use
// when CONTROLPLANE_SESSION_SECRET is unset in local development.
func GenerateDevSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// IssueToken signs a session for the given account.
func (m *SessionManager) IssueToken(s *Session) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: m.signingKey}, nil)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := SessionClaims{
		Claims: jwt.Claims{
			Subject:   s.AccountID.String(),
			Issuer:    "radixpos-controlplane",
			IssuedAt:  jwt.NewNumericDate(now),
			Expiry:    jwt.NewNumericDate(now.Add(m.maxAge)),
			NotBefore: jwt.NewNumericDate(now),
		},
		Email:       s.Email,
		DisplayName: s.DisplayName,
		AccountType: s.AccountType,
	}
	if s.ResellerID != nil {
		claims.ResellerID = s.ResellerID.String()
	}
	if s.TenantID != nil {
		claims.TenantID = s.TenantID.String()
	}

	return jwt.Signed(signer).Claims(claims).Serialize()
}

// ValidateToken parses and verifies a session token, returning the
// reconstructed Session.
func (m *SessionManager) ValidateToken(token string) (*Session, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, err
	}

	var claims SessionClaims
	if err := parsed.Claims(m.signingKey, &claims); err != nil {
		return nil, err
	}

	if err := claims.Claims.Validate(jwt.Expected{Issuer: "radixpos-controlplane", Time: time.Now()}); err != nil {
		return nil, err
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("invalid subject in session token")
	}

	s := &Session{
		AccountID:   accountID,
		AccountType: claims.AccountType,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Method:      MethodSession,
	}
	if claims.ResellerID != "" {
		id, err := uuid.Parse(claims.ResellerID)
		if err != nil {
			return nil, errors.New("invalid reseller_id in session token")
		}
		s.ResellerID = &id
	}
	if claims.TenantID != "" {
		id, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return nil, errors.New("invalid tenant_id in session token")
		}
		s.TenantID = &id
	}
	return s, nil
}
