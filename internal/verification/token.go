package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenAudience = "email-confirm"

var (
	ErrExpired = errors.New("verification credential expired")
	ErrInvalid = errors.New("verification credential invalid")
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Epoch int `json:"epoch"`
}

// TokenClaims is what a valid link token proves.
type TokenClaims struct {
	Email    string
	Epoch    int
	IssuedAt time.Time
}

// TokenSigner issues and checks HS256 link tokens bound to an email.
type TokenSigner struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, maxAge time.Duration) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *TokenSigner) Sign(email string, epoch int) (string, error) {
	issuedAt := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.maxAge)),
		},
		Epoch: epoch,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}

// Parse returns ErrExpired once the max age has elapsed and ErrInvalid for
// any other failure.
func (s *TokenSigner) Parse(token string) (*TokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalid
	}

	return &TokenClaims{
		Email:    claims.Subject,
		Epoch:    claims.Epoch,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}
