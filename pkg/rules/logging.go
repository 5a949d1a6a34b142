package rules

import (
	"log/slog"
	"time"
)

// LogEvent describes one evaluation attempt.
type LogEvent struct {
	Engine   string
	Expr     string
	Store    string
	Duration time.Duration
	Err      error
}

// Logger records evaluation events.
type Logger interface {
	LogEvaluation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

func (f LoggerFunc) LogEvaluation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(LogEvent) {}

// SlogLogger reports evaluations at debug level, failures at warn.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return LoggerFunc(func(event LogEvent) {
		attrs := []any{
			"engine", event.Engine,
			"expr", event.Expr,
			"store", event.Store,
			"duration", event.Duration,
		}
		if event.Err != nil {
			logger.Warn("rule evaluation failed", append(attrs, "error", event.Err)...)
			return
		}
		logger.Debug("rule evaluated", attrs...)
	})
}

// Logged wraps evaluator so every Evaluate call is reported to logger.
func Logged(evaluator Evaluator, logger Logger) Evaluator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &loggedEvaluator{next: evaluator, logger: logger}
}

type loggedEvaluator struct {
	next   Evaluator
	logger Logger
}

func (l *loggedEvaluator) Evaluate(ctx RuleContext, expr string) (any, error) {
	start := time.Now()
	value, err := l.next.Evaluate(ctx, expr)
	l.logger.LogEvaluation(LogEvent{
		Engine:   EngineName(l.next),
		Expr:     expr,
		Store:    ctx.label(),
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}

func (l *loggedEvaluator) Compile(expr string) (CompiledRule, error) {
	return l.next.Compile(expr)
}

// EngineName reports a short engine label for evaluator.
func EngineName(evaluator Evaluator) string {
	switch e := evaluator.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	case *loggedEvaluator:
		return EngineName(e.next)
	case nil:
		return "none"
	default:
		if name, ok := evaluator.(interface{ engineName() string }); ok {
			return name.engineName()
		}
		return "custom"
	}
}
