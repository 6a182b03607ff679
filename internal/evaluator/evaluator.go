package evaluator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// ErrEvaluation is wrapped by every failure returned from Evaluate.
var ErrEvaluation = errors.New("evaluation failed")

// defaultCostLimit bounds the runtime cost of a single expression.
const defaultCostLimit = 10_000

// Evaluator compiles and runs expressions in an empty CEL environment.
// It is safe for concurrent use.
type Evaluator struct {
	env       *cel.Env
	costLimit uint64
}

// New builds an Evaluator. Besides CEL's arithmetic it accepts % on
// doubles and pow(x, y).
func New() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Function(operators.Modulo,
			cel.Overload("modulo_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType}, cel.DoubleType,
				cel.BinaryBinding(doubleBinary(math.Mod)))),
		cel.Function("pow",
			cel.Overload("pow_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType}, cel.DoubleType,
				cel.BinaryBinding(doubleBinary(math.Pow)))),
	)
	if err != nil {
		return nil, fmt.Errorf("evaluator: build env: %w", err)
	}
	return &Evaluator{env: env, costLimit: defaultCostLimit}, nil
}

// Evaluate computes text and returns the result rounded to two decimals.
func (e *Evaluator) Evaluate(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrEvaluation)
	}
	ast, iss := e.env.Compile(promoteIntLiterals(text))
	if iss != nil && iss.Err() != nil {
		return 0, fmt.Errorf("%w: %v", ErrEvaluation, iss.Err())
	}
	prog, err := e.env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	out, _, err := prog.Eval(cel.NoVars())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	var v float64
	switch n := out.(type) {
	case types.Double:
		v = float64(n)
	case types.Int:
		v = float64(n)
	case types.Uint:
		v = float64(n)
	default:
		return 0, fmt.Errorf("%w: result is %s, not a number", ErrEvaluation, out.Type().TypeName())
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result is not finite", ErrEvaluation)
	}
	return Round2(v), nil
}

func doubleBinary(fn func(x, y float64) float64) func(lhs, rhs ref.Val) ref.Val {
	return func(lhs, rhs ref.Val) ref.Val {
		x, ok := lhs.(types.Double)
		if !ok {
			return types.MaybeNoSuchOverloadErr(lhs)
		}
		y, ok := rhs.(types.Double)
		if !ok {
			return types.MaybeNoSuchOverloadErr(rhs)
		}
		return types.Double(fn(float64(x), float64(y)))
	}
}

// maxExactFraction is where float64 stops carrying fractional digits.
const maxExactFraction = 1 << 52

// Round2 rounds half away from zero to two decimals; -0 becomes 0.
// Magnitudes of 2^52 and above are already integral and returned as is.
func Round2(v float64) float64 {
	if math.Abs(v) >= maxExactFraction {
		return v
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
