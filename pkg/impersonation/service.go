package impersonation

import (
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Claims is the JWT payload a minted impersonation link carries: storeId,
// storeCode, tenantId, resellerId, cloudAccountId, cloudAccountType, and
// cloudAccountEmail.
type Claims struct {
	jwt.Claims
	StoreCode         string `json:"store_code"`
	TenantID          string `json:"tenant_id"`
	ResellerID        string `json:"reseller_id,omitempty"`
	CloudAccountType  string `json:"cloud_account_type"`
	CloudAccountEmail string `json:"cloud_account_email"`
}

// Service mints impersonation tokens, reusing the same HS256 go-jose
// primitive as auth.SessionManager with a shorter-lived claims struct of
// its own rather than a second crypto library.
type Service struct {
	signingKey []byte
	targetBase string
}

// NewService builds an impersonation Service. signingKey is shared with the
// session token signer; defaultTargetBaseURL is used when a mint request
// doesn't name a TargetBaseURL.
func NewService(signingKey []byte, defaultTargetBaseURL string) *Service {
	return &Service{signingKey: signingKey, targetBase: defaultTargetBaseURL}
}

// Mint signs a link for storeCode, expiring after ttl (clamped to MaxTTL).
func (s *Service) Mint(p Params, storeCode string, ttl time.Duration) (Link, error) {
	if ttl <= 0 || ttl > MaxTTL {
		ttl = DefaultTTL
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: s.signingKey}, nil)
	if err != nil {
		return Link{}, err
	}

	now := time.Now()
	claims := Claims{
		Claims: jwt.Claims{
			Subject:   p.CloudAccountID.String(),
			Issuer:    "radixpos-controlplane-impersonation",
			IssuedAt:  jwt.NewNumericDate(now),
			Expiry:    jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
		},
		StoreCode:         storeCode,
		TenantID:          p.TenantID.String(),
		CloudAccountType:  p.CloudAccountType,
		CloudAccountEmail: p.CloudAccountEmail,
	}
	claims.Claims.ID = p.StoreID.String()
	if p.ResellerID != nil {
		claims.ResellerID = p.ResellerID.String()
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return Link{}, err
	}

	targetBase := s.targetBase
	if p.TargetBaseURL != nil {
		targetBase = *p.TargetBaseURL
	}

	url := targetBase
	if url != "" {
		url += "/onsite/impersonate?token=" + token
	} else {
		url = token
	}

	return Link{
		StoreID:          p.StoreID,
		StoreCode:         storeCode,
		TargetBaseURL:     p.TargetBaseURL,
		ExpiresInSeconds:  int(ttl.Seconds()),
		URL:               url,
	}, nil
}

// Verify parses and validates a link token, returning its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := parsed.Claims(s.signingKey, &claims); err != nil {
		return nil, err
	}

	if err := claims.Claims.Validate(jwt.Expected{Issuer: "radixpos-controlplane-impersonation", Time: time.Now()}); err != nil {
		return nil, err
	}

	return &claims, nil
}
