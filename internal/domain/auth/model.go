// Package auth provides operator authentication for the dashboard API.
package auth

import (
	"time"

	"serio/internal/core/id"
)

// Role names known to the permission layer.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Operator is a dashboard user. The operator's ID is the actor identifier
// recorded on every series mutation.
type Operator struct {
	ID           id.ID     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Roles        []string  `db:"roles" json:"roles"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// HasRole checks role membership.
func (o *Operator) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}
