package solver

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/structbio/mcfit/pkg/errors"
)

// maxEnumModels caps the candidate pool for exhaustive support enumeration.
// Larger pools are preselected down to this size by unconstrained QP weight,
// ties broken by row index, keeping the search deterministic.
const maxEnumModels = 16

// MIQPSolver selects at most `cardinality` conformers, each with weight in
// [threshold, 1] and total weight at most one, minimising the same quadratic
// as the QP.
//
// The integer program is solved exactly by enumerating every support of size
// 1..cardinality over the (possibly preselected) pool and solving the
// continuous box-and-sum QP restricted to that support.
type MIQPSolver struct {
	// Weights holds the solution after Solve, one weight per model row;
	// off-support rows are exactly zero.
	Weights []float64

	// ObjValue is the minimised quadratic over the best support.
	ObjValue float64

	qp *QPSolver
}

// NewMIQPSolver assembles the solver for the given target and model rows.
func NewMIQPSolver(target []float64, models [][]float64) (*MIQPSolver, error) {
	qp, err := NewQPSolver(target, models)
	if err != nil {
		return nil, err
	}
	return &MIQPSolver{qp: qp}, nil
}

// Solve runs the selection with the given cardinality and threshold.
func (s *MIQPSolver) Solve(cardinality int, threshold float64) error {
	n := s.qp.n
	if cardinality < 1 {
		return errors.New(errors.KindSolverFailure, "cardinality %d < 1", cardinality)
	}
	if threshold <= 0 || threshold > 1 {
		return errors.New(errors.KindSolverFailure,
			"threshold %g outside (0, 1]", threshold)
	}

	pool := s.preselect()
	if cardinality > len(pool) {
		cardinality = len(pool)
	}
	// |S|·threshold ≤ 1 is required for a feasible support.
	if maxCard := int(1 / threshold); cardinality > maxCard {
		cardinality = maxCard
	}

	best := math.Inf(1)
	var bestSupport []int
	var bestWeights []float64
	support := make([]int, 0, cardinality)
	var walk func(start, remaining int)
	walk = func(start, remaining int) {
		if len(support) > 0 {
			w, obj, ok := s.solveSupport(support, threshold)
			if ok && obj < best-1e-12 {
				best = obj
				bestSupport = append([]int(nil), support...)
				bestWeights = w
			}
		}
		if remaining == 0 {
			return
		}
		for i := start; i < len(pool); i++ {
			support = append(support, pool[i])
			walk(i+1, remaining-1)
			support = support[:len(support)-1]
		}
	}
	walk(0, cardinality)

	if bestSupport == nil {
		return errors.New(errors.KindSolverFailure,
			"no feasible support of size <= %d at threshold %g", cardinality, threshold)
	}
	s.Weights = make([]float64, n)
	for k, i := range bestSupport {
		s.Weights[i] = bestWeights[k]
	}
	s.ObjValue = best
	return nil
}

// Remainder reports the diagnostic residual 2·obj + tᵀt after solving.
func (s *MIQPSolver) Remainder() float64 {
	return 2*s.ObjValue + floats.Dot(s.qp.target, s.qp.target)
}

// preselect returns the row indices eligible for enumeration. Pools up to
// maxEnumModels pass through unchanged; larger pools keep the rows with the
// largest unconstrained QP weights.
func (s *MIQPSolver) preselect() []int {
	n := s.qp.n
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if n <= maxEnumModels {
		return idx
	}
	if err := s.qp.Solve(); err != nil {
		// Fall back to the leading rows; the enumeration below still
		// sees a deterministic pool.
		return idx[:maxEnumModels]
	}
	w := s.qp.Weights
	sort.SliceStable(idx, func(a, b int) bool { return w[idx[a]] > w[idx[b]] })
	idx = idx[:maxEnumModels]
	sort.Ints(idx)
	return idx
}

// solveSupport minimises the quadratic restricted to the support with
// threshold ≤ w ≤ 1 and Σw ≤ 1. Returns ok=false for infeasible supports.
func (s *MIQPSolver) solveSupport(support []int, threshold float64) ([]float64, float64, bool) {
	k := len(support)
	if float64(k)*threshold > 1+1e-9 {
		return nil, 0, false
	}
	subQ := mat.NewSymDense(k, nil)
	subC := make([]float64, k)
	for a, i := range support {
		for b := a; b < k; b++ {
			subQ.SetSym(a, b, s.qp.q.At(i, support[b]))
		}
		subC[a] = s.qp.c[i]
	}
	w, obj, err := projectedGradient(subQ, subC, func(w []float64) {
		projectBoxSum(w, threshold, 1, 1)
	})
	if err != nil {
		return nil, 0, false
	}
	return w, obj, true
}

// projectBoxSum projects w in place onto {lo ≤ wᵢ ≤ hi, Σw ≤ limit}. After
// clamping into the box, a nonnegative shift λ is found by bisection such
// that Σ clamp(wᵢ − λ) = limit; the clamped sum is monotone in λ.
func projectBoxSum(w []float64, lo, hi, limit float64) {
	clampSum := func(lambda float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += math.Min(hi, math.Max(lo, v-lambda))
		}
		return sum
	}
	for i, v := range w {
		w[i] = math.Min(hi, math.Max(lo, v))
	}
	if floats.Sum(w) <= limit {
		return
	}
	// Σ is already > limit at λ=0 and reaches n·lo ≤ limit for large λ.
	lambdaLo, lambdaHi := 0.0, hi
	for iter := 0; iter < 100; iter++ {
		mid := (lambdaLo + lambdaHi) / 2
		if clampSum(mid) > limit {
			lambdaLo = mid
		} else {
			lambdaHi = mid
		}
	}
	lambda := (lambdaLo + lambdaHi) / 2
	for i, v := range w {
		w[i] = math.Min(hi, math.Max(lo, v-lambda))
	}
}
