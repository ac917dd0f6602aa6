package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultReportLimit, ClampLimit(0))
	assert.Equal(t, DefaultReportLimit, ClampLimit(-3))
	assert.Equal(t, 5, ClampLimit(5))
	assert.Equal(t, MaxReportLimit, ClampLimit(1000))
}

func TestStaticOperatorRepository(t *testing.T) {
	repo := NewStaticOperatorRepository("operator", "$2a$hash")

	op, err := repo.GetByUsername(" OPERATOR")
	assert.NoError(t, err)
	if assert.NotNil(t, op) {
		assert.Equal(t, "$2a$hash", op.PasswordHash)
	}

	op, err = repo.GetByUsername("admin")
	assert.NoError(t, err)
	assert.Nil(t, op)

	op, _ = NewStaticOperatorRepository("operator", "").GetByUsername("operator")
	assert.Nil(t, op)
}
