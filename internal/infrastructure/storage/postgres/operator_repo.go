package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"serio/internal/core/apperror"
	"serio/internal/domain/auth"
)

const operatorsTable = "operators"

// OperatorRepo is the PostgreSQL implementation of auth.Repository.
type OperatorRepo struct {
	txManager *TxManager
}

// NewOperatorRepo creates an operator repository.
func NewOperatorRepo(pool *Pool) *OperatorRepo {
	return &OperatorRepo{txManager: NewTxManager(pool)}
}

func (r *OperatorRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetByEmail loads an operator by email.
func (r *OperatorRepo) GetByEmail(ctx context.Context, email string) (*auth.Operator, error) {
	sql, args, err := r.builder().
		Select("id", "email", "name", "password_hash", "roles", "is_admin", "active", "created_at").
		From(operatorsTable).
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build operator query: %w", err)
	}

	var op auth.Operator
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operator", email)
		}
		return nil, fmt.Errorf("load operator: %w", err)
	}
	return &op, nil
}

// Create inserts a new operator.
func (r *OperatorRepo) Create(ctx context.Context, op *auth.Operator) error {
	sql, args, err := r.builder().
		Insert(operatorsTable).
		Columns("id", "email", "name", "password_hash", "roles", "is_admin", "active", "created_at").
		Values(op.ID, op.Email, op.Name, op.PasswordHash, op.Roles, op.IsAdmin, op.Active, op.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build operator insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}
