package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

// Service issues and validates bearer tokens and resolves caller identity
// against the users collection.
type Service struct {
	hmac  []byte
	ttl   time.Duration
	store lms.Store
}

func NewService(secret string, ttl time.Duration, store lms.Store) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{hmac: []byte(secret), ttl: ttl, store: store}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(userID, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "nextlearn-lms",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return c, nil
}

// Authenticate verifies email/password and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (lms.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return lms.User{}, err
	}
	if !u.Active {
		return lms.User{}, lms.ErrForbidden
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return lms.User{}, lms.ErrForbidden
	}
	_ = s.store.TouchLastLogin(ctx, u.ID)
	return u, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// ResolveRole returns the authoritative role from the users collection,
// falling back to the token claim when the user document is gone.
func (s *Service) ResolveRole(ctx context.Context, userID, claimRole string) string {
	u, err := s.store.GetUser(ctx, userID)
	if err == nil && u.Role != "" {
		return u.Role
	}
	return claimRole
}
