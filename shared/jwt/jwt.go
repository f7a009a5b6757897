package jwt

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	"github.com/compass-ms/usernotify/shared/logger"
)

type JwtService interface {
	NewToken(subject string) (string, error)
	Subject(tokenString string) (string, error)
}

// Jwt issues and verifies HS256 tokens. Validity is purely signature, issuer
// and expiry; there is no server-side token state and no revocation.
type Jwt struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

func New(secretKey, issuer string, ttl time.Duration) *Jwt {
	return &Jwt{secretKey: []byte(secretKey), issuer: issuer, ttl: ttl}
}

// NewToken signs a token for the given subject (the account email), valid for
// the configured TTL from now.
func (j *Jwt) NewToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", &internal_errors.ErrorWithStatusCode{Message: "Can't create token", StatusCode: http.StatusInternalServerError}
	}
	return tokenString, nil
}

// Subject verifies the token and returns its subject claim. Bad signature,
// wrong issuer and expired tokens all map to the same 401 error.
func (j *Jwt) Subject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return j.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	}
	return claims.Subject, nil
}
