package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/viant/vec/search"
	"github.com/viterin/vek/vek32"
	sqlite "modernc.org/sqlite"

	"github.com/viant/knn/vector"
)

// RegisterVectorFunctions registers vec_cosine, vec_l2 and vec_dot with the
// driver so they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterVectorFunctions(_ *sql.DB) error {
	// Idempotent registration; driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
	_ = sqlite.RegisterDeterministicScalarFunction("vec_dot", 2, vecDotImpl)
	return nil
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

// pairFunc wraps a float32 pair function as a SQL function. NULL or empty
// arguments yield NULL.
func pairFunc(name string, fn func(a, b []float32) (float64, error)) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asEmbedding(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asEmbedding(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		if len(a) != len(b) {
			return nil, fmt.Errorf("%s: dim mismatch %d vs %d", name, len(a), len(b))
		}
		return fn(a, b)
	}
}

var (
	vecCosineImpl = pairFunc("vec_cosine", cosine)
	vecL2Impl     = pairFunc("vec_l2", l2)
	vecDotImpl    = pairFunc("vec_dot", dot)
)

// cosine returns the cosine similarity.
func cosine(a, b []float32) (float64, error) {
	va, vb := search.Float32s(a), search.Float32s(b)
	if va.Magnitude() == 0 || vb.Magnitude() == 0 {
		return 0, fmt.Errorf("vec: cosine with zero-magnitude vector")
	}
	return 1 - float64(va.CosineDistance(b)), nil
}

func l2(a, b []float32) (float64, error) {
	return float64(search.Float32s(a).EuclideanDistance(b)), nil
}

func dot(a, b []float32) (float64, error) {
	return float64(vek32.Dot(a, b)), nil
}
