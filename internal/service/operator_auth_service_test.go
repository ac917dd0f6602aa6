package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smartpark/internal/repository"
)

func newTestAuth(t *testing.T, secret string) *operatorAuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := repository.NewStaticOperatorRepository("operator", string(hash))
	return NewOperatorAuthService(repo, secret, time.Hour).(*operatorAuthService)
}

func TestOperatorAuth_LoginAndValidate(t *testing.T) {
	svc := newTestAuth(t, "s3cret")

	token, err := svc.Login("Operator ", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
}

func TestOperatorAuth_InvalidCredentials(t *testing.T) {
	svc := newTestAuth(t, "s3cret")

	_, err := svc.Login("operator", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("someone", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOperatorAuth_ExpiredToken(t *testing.T) {
	svc := newTestAuth(t, "s3cret")
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.Login("operator", "hunter2")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOperatorAuth_WrongSecret(t *testing.T) {
	token, err := newTestAuth(t, "one").Login("operator", "hunter2")
	require.NoError(t, err)

	_, err = newTestAuth(t, "two").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOperatorAuth_Disabled(t *testing.T) {
	svc := newTestAuth(t, "")
	assert.False(t, svc.Enabled())

	_, err := svc.Login("operator", "hunter2")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, checkPasswordHash("pw", hash))
	assert.False(t, checkPasswordHash("other", hash))

	_, err = HashPassword("")
	assert.Error(t, err)
}
