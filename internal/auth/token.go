package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal attached to a connection once at
// handshake and passed explicitly into every handler.
type Identity struct {
	UserID   int
	Username string
}

// TokenService issues and verifies the opaque identity tokens the transport
// layer exchanges.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret []byte, expiresIn time.Duration) *TokenService {
	return &TokenService{secret: secret, expiresIn: expiresIn}
}

// Issue creates a signed token for the user.
func (s *TokenService) Issue(userID int, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", userID),
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token and returns the embedded identity.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	if sub == "" || username == "" {
		return Identity{}, ErrInvalidToken
	}

	var userID int
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Username: username}, nil
}
