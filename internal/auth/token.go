package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/memberhub/apiserver/types"
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// trusted: malformed, expired, forged, or missing a subject. Callers treat
// it as "unauthenticated", never as a fault.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by an identity token. It is a strict subset
// of the member record; the password hash is never included.
type Claims struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs member claims into bearer tokens. The secret is held
// explicitly so tests can run with fixed keys.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs {member_id, member_name} into an HS256 token with an expiry.
func (i *TokenIssuer) Issue(member types.Member) (string, error) {
	now := time.Now()
	claims := Claims{
		MemberID:   member.ID,
		MemberName: member.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// TokenVerifier validates bearer tokens issued by a TokenIssuer holding the
// same secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates tokenString and returns its claims. Any
// malformed, forged, or expired token yields ErrInvalidToken.
func (v *TokenVerifier) Verify(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.MemberID) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
