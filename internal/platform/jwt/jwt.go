package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "carecoin/pkg/domain-errors"
)

// Claims are the access-token claims the ledger cares about. The subject is
// the account identity operations run as; collaborating services present
// tokens for their own service accounts.
type Claims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation (HS256).
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken issues a token for an account. Used by the operator CLI and
// test helpers; production callers bring tokens from the platform's issuer.
func (s *Service) GenerateToken(account string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Account: account,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the account it was
// issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}
	account := claims.Account
	if account == "" {
		account = claims.Subject
	}
	if account == "" {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "token carries no account")
	}
	return account, nil
}
