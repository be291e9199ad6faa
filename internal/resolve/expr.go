package resolve

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/goap/internal/goap"
)

var exprPrograms = newProgramCache[*vm.Program](DefaultCacheSize)

func compileExpr(expression string) (*vm.Program, error) {
	return expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
}

// Expr returns a factory for resolvers evaluating an expr-lang expression
// against the agent's blackboard, whose keys are the expression's variables.
// Undefined variables are nil, so "cocoa == true" is false until the key is
// set. It fails if the expression does not compile.
func Expr(expression string, opts ...Option) (goap.ResolverFactory, error) {
	program, err := exprPrograms.get(expression, compileExpr)
	if err != nil {
		return nil, fmt.Errorf("resolve: compile expr %q: %w", expression, err)
	}
	o := buildOptions(opts)
	return goap.Delayed(o.delay, func(agent *goap.Agent) bool {
		out, err := expr.Run(program, agent.State().Snapshot())
		if err != nil {
			o.logger.Warn("resolve: expr evaluation failed",
				"agent", agent.Name(), "expression", expression, "error", err)
			return false
		}
		return out.(bool)
	}), nil
}

// MustExpr is like Expr but panics on error.
func MustExpr(expression string, opts ...Option) goap.ResolverFactory {
	factory, err := Expr(expression, opts...)
	if err != nil {
		panic(err)
	}
	return factory
}
