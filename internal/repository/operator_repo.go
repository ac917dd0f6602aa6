package repository

import "strings"

type Operator struct {
	Username     string
	PasswordHash string
}

type OperatorRepository interface {
	GetByUsername(username string) (*Operator, error)
}

// staticOperatorRepository serves the single operator account configured
// through the environment.
type staticOperatorRepository struct {
	operator Operator
}

func NewStaticOperatorRepository(username, passwordHash string) OperatorRepository {
	return &staticOperatorRepository{operator: Operator{Username: username, PasswordHash: passwordHash}}
}

// GetByUsername returns nil, nil for an unknown username.
func (r *staticOperatorRepository) GetByUsername(username string) (*Operator, error) {
	if r.operator.PasswordHash == "" || !strings.EqualFold(strings.TrimSpace(username), r.operator.Username) {
		return nil, nil
	}
	op := r.operator
	return &op, nil
}
