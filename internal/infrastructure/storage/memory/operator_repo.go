package memory

import (
	"context"
	"strings"
	"sync"

	"serio/internal/core/apperror"
	"serio/internal/domain/auth"
)

// OperatorRepo is an in-memory auth.Repository for development and tests.
type OperatorRepo struct {
	mu        sync.RWMutex
	operators map[string]*auth.Operator // keyed by lowercase email
}

func NewOperatorRepo() *OperatorRepo {
	return &OperatorRepo{operators: make(map[string]*auth.Operator)}
}

func (r *OperatorRepo) GetByEmail(_ context.Context, email string) (*auth.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operators[strings.ToLower(email)]
	if !ok {
		return nil, apperror.NewNotFound("operator", email)
	}
	cp := *op
	return &cp, nil
}

func (r *OperatorRepo) Create(_ context.Context, op *auth.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(op.Email)
	if _, exists := r.operators[key]; exists {
		return apperror.NewConflict("operator already exists")
	}
	cp := *op
	r.operators[key] = &cp
	return nil
}
