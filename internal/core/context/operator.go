// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// OperatorContext contains authenticated operator information.
type OperatorContext struct {
	ID      string
	Email   string
	Roles   []string
	IsAdmin bool
}

type operatorContextKey struct{}

// WithOperator adds OperatorContext to context.
func WithOperator(ctx context.Context, op *OperatorContext) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

// GetOperator returns OperatorContext from context.
func GetOperator(ctx context.Context) *OperatorContext {
	if v, ok := ctx.Value(operatorContextKey{}).(*OperatorContext); ok {
		return v
	}
	return nil
}

// GetOperatorID returns operator ID from context or empty string.
func GetOperatorID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.ID
	}
	return ""
}

// HasRole checks if operator has specific role.
func HasRole(ctx context.Context, role string) bool {
	op := GetOperator(ctx)
	if op == nil {
		return false
	}
	for _, r := range op.Roles {
		if r == role {
			return true
		}
	}
	return false
}
