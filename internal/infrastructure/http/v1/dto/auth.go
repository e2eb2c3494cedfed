package dto

import (
	"time"

	"serio/internal/domain/auth"
)

// LoginRequest authenticates an operator.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OperatorResponse is the public view of an operator.
type OperatorResponse struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
	IsAdmin bool     `json:"isAdmin"`
}

// FromOperator converts an operator to its API shape.
func FromOperator(op *auth.Operator) OperatorResponse {
	return OperatorResponse{
		ID:      op.ID.String(),
		Email:   op.Email,
		Name:    op.Name,
		Roles:   op.Roles,
		IsAdmin: op.IsAdmin,
	}
}

// LoginResponse carries the access token and its holder.
type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Operator  OperatorResponse `json:"operator"`
}
