package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smartpark/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthDisabled       = errors.New("operator auth is not configured")
)

// OperatorClaims is the JWT payload issued on login.
type OperatorClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type OperatorAuthService interface {
	Enabled() bool
	Login(username, password string) (string, error)
	ValidateToken(token string) (*OperatorClaims, error)
}

type operatorAuthService struct {
	repo   repository.OperatorRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewOperatorAuthService(repo repository.OperatorRepository, secret string, ttl time.Duration) OperatorAuthService {
	return &operatorAuthService{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled is false when no signing secret is configured; routes stay open then.
func (s *operatorAuthService) Enabled() bool {
	return len(s.secret) > 0
}

func (s *operatorAuthService) Login(username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	op, err := s.repo.GetByUsername(username)
	if err != nil {
		return "", fmt.Errorf("looking up operator: %w", err)
	}
	if op == nil {
		return "", ErrInvalidCredentials
	}
	if !checkPasswordHash(password, op.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := OperatorClaims{
		Username: op.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *operatorAuthService) ValidateToken(raw string) (*OperatorClaims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// HashPassword produces the value expected in OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
