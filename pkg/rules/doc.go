// Package rules evaluates boolean expressions against flattened store
// snapshots. Stores use it for conditional watches and the composition root
// uses it to pick a startup destination from several stores at once.
//
// Three engines share the Evaluator contract:
//
//	expr-lang/expr   NewExprEvaluator (default)
//	google/cel-go    NewCELEvaluator
//	dop251/goja      NewJSEvaluator (requires the js_eval build tag)
//
// Snapshot keys become top-level variables. `now` and `args` are always bound.
package rules
