package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-appstate/pkg/rules"
)

// NewEvaluator builds the rule engine named by engine ("expr", "cel" or
// "js") with the rules.Builtins helpers. Evaluations are logged at debug
// level.
func NewEvaluator(engine string, logger *slog.Logger) (rules.Evaluator, error) {
	functions := rules.Builtins()

	var evaluator rules.Evaluator
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "expr":
		evaluator = rules.NewExprEvaluator(
			rules.ExprWithProgramCache(rules.NewMapCache()),
			rules.ExprWithFunctionRegistry(functions),
		)
	case "cel":
		evaluator = rules.NewCELEvaluator(
			rules.CELWithProgramCache(rules.NewMapCache()),
			rules.CELWithFunctionRegistry(functions),
		)
	case "js":
		evaluator = rules.NewJSEvaluator(
			rules.JSWithProgramCache(rules.NewMapCache()),
			rules.JSWithFunctionRegistry(functions),
		)
		if evaluator == nil {
			return nil, fmt.Errorf("app: js rules need the js_eval build tag")
		}
	default:
		return nil, fmt.Errorf("app: unknown rules engine %q", engine)
	}
	if logger != nil {
		evaluator = rules.Logged(evaluator, rules.SlogLogger(logger.With("component", "rules")))
	}
	return evaluator, nil
}
