package auth // package auth implements token issuance and credential hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure kinds. Callers branch on these to pick a response
// status: a malformed token is not the same as a well-formed one that
// expired, and clients key refresh-and-retry logic off the difference.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

// AccessClaims is the payload of a short-lived access token. Subject holds
// the user id.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token. It carries
// only the registered claims (subject, expiry, issued-at) so a leaked
// refresh token discloses nothing beyond the user id.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies the two token classes against two independent
// secrets. Access tokens never verify against the refresh secret and vice
// versa; both classes are stateless HS256 JWTs, so validity is determined
// entirely by signature and expiry.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a Codec. The two secrets must be independent; config
// enforces that before the server starts.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// RefreshTTL reports the refresh token lifetime, used to set the cookie
// Max-Age alongside the token's own exp claim.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// MintAccess signs a new access token for the user. The jti claim makes
// every minted token distinct even within the same second.
func (c *Codec) MintAccess(userID, email string) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// MintRefresh signs a new refresh token for the user.
func (c *Codec) MintRefresh(userID string) (string, error) {
	now := time.Now().UTC()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

// VerifyAccess checks signature and expiry against the access secret and
// returns the decoded claims.
func (c *Codec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(token, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// returns the decoded claims.
func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(token, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		default:
			// Wrong signature, wrong secret, wrong algorithm.
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
