package resolve

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/joeycumines/goap/internal/goap"
)

// CELStateVariable is the name the blackboard is bound to in CEL expressions.
const CELStateVariable = "state"

var (
	celPrograms = newProgramCache[cel.Program](DefaultCacheSize)

	celEnv = sync.OnceValues(func() (*cel.Env, error) {
		return cel.NewEnv(cel.Variable(CELStateVariable, cel.MapType(cel.StringType, cel.DynType)))
	})
)

func compileCEL(expression string) (cel.Program, error) {
	env, err := celEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expression)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	return env.Program(ast)
}

// CEL returns a factory for resolvers evaluating a CEL expression, with the
// agent's blackboard bound to the map variable "state". Reading a missing key
// is an evaluation error and resolves to false; use has(state.key) to test
// for presence. It fails if the expression does not compile.
func CEL(expression string, opts ...Option) (goap.ResolverFactory, error) {
	program, err := celPrograms.get(expression, compileCEL)
	if err != nil {
		return nil, fmt.Errorf("resolve: compile cel %q: %w", expression, err)
	}
	o := buildOptions(opts)
	return goap.Delayed(o.delay, func(agent *goap.Agent) bool {
		out, _, err := program.Eval(map[string]any{CELStateVariable: agent.State().Snapshot()})
		if err != nil {
			o.logger.Debug("resolve: cel evaluation failed",
				"agent", agent.Name(), "expression", expression, "error", err)
			return false
		}
		b, ok := out.Value().(bool)
		if !ok {
			o.logger.Warn("resolve: cel result is not a bool",
				"agent", agent.Name(), "expression", expression, "type", out.Type())
		}
		return b
	}), nil
}

// MustCEL is like CEL but panics on error.
func MustCEL(expression string, opts ...Option) goap.ResolverFactory {
	factory, err := CEL(expression, opts...)
	if err != nil {
		panic(err)
	}
	return factory
}
