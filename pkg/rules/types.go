package rules

import (
	"fmt"
	"time"
)

// RuleContext carries the inputs for one evaluation.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	// Store names the snapshot's owner in errors and log events.
	Store string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) label() string {
	if ctx.Store != "" {
		return ctx.Store
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Truthy coerces an evaluation result into a boolean. Only bool results are
// accepted; anything else is reported as an error.
func Truthy(value any, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("rules: expected bool result, got %T", value)
	}
	return b, nil
}
