// Package security provides authorization policies for operator actions.
package security

import (
	"fmt"

	"github.com/google/cel-go/cel"

	appctx "serio/internal/core/context"
)

// Series action names evaluated by the policy.
const (
	ActionSkip    = "skip"
	ActionReserve = "reserve"
	ActionRelease = "release"
	ActionIssue   = "issue"
)

// DefaultRule lets admins do everything; skipping a number is a permanent
// retirement, so it stays admin-only, while the other actions are open to
// any operator.
const DefaultRule = `is_admin || (action != "skip" && "operator" in roles)`

// ActionPolicy decides whether an operator may perform a series action.
// The rule is a CEL expression over the variables actor (string), roles
// (list of string), is_admin (bool), action (string) and number (int),
// compiled once at startup. Deployments override the rule via
// configuration without a rebuild.
type ActionPolicy struct {
	program cel.Program
}

// NewActionPolicy compiles the rule expression.
func NewActionPolicy(rule string) (*ActionPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("actor", cel.StringType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("is_admin", cel.BoolType),
		cel.Variable("action", cel.StringType),
		cel.Variable("number", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy rule: %w", issues.Err())
	}
	if ast.OutputType().String() != "bool" {
		return nil, fmt.Errorf("policy rule must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &ActionPolicy{program: program}, nil
}

// MustDefaultPolicy returns the compiled default rule.
// Panics on compile failure, which would be a programming error.
func MustDefaultPolicy() *ActionPolicy {
	p, err := NewActionPolicy(DefaultRule)
	if err != nil {
		panic(err)
	}
	return p
}

// Allow evaluates the rule for one operator action.
func (p *ActionPolicy) Allow(op *appctx.OperatorContext, action string, number int64) (bool, error) {
	if op == nil {
		return false, nil
	}

	roles := op.Roles
	if roles == nil {
		roles = []string{}
	}

	out, _, err := p.program.Eval(map[string]any{
		"actor":    op.ID,
		"roles":    roles,
		"is_admin": op.IsAdmin,
		"action":   action,
		"number":   number,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate policy rule: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy rule produced %T, want bool", out.Value())
	}
	return allowed, nil
}
