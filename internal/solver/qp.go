// Package solver implements the convex weight fit and the
// cardinality-constrained selection over candidate conformers.
//
// Both solvers minimise the quadratic
//
//	½ wᵀ(M Mᵀ)w − wᵀ(M t)
//
// where t is the observed density at masked voxels and M holds one candidate
// row per conformer. The QP constrains w ≥ 0, Σw ≤ 1; the MIQP additionally
// requires each nonzero weight to be at least a threshold and limits the
// number of nonzero weights.
package solver

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/structbio/mcfit/pkg/errors"
)

// maxIterations bounds the projected-gradient loop.
const maxIterations = 5000

// convergenceTol terminates the iteration when no weight moves more than
// this between steps.
const convergenceTol = 1e-12

// QPSolver fits nonnegative weights with Σw ≤ 1.
type QPSolver struct {
	// Weights holds the solution after Solve, one weight per model row.
	Weights []float64

	// ObjValue is the minimised quadratic ½wᵀQw − cᵀw.
	ObjValue float64

	target []float64
	q      *mat.SymDense // MMᵀ
	c      []float64     // Mt
	n      int
}

// NewQPSolver assembles the Gram matrix and linear term for the given target
// and model rows. Every model row must have the target's length.
func NewQPSolver(target []float64, models [][]float64) (*QPSolver, error) {
	n := len(models)
	if n == 0 {
		return nil, errors.New(errors.KindSolverFailure, "no model rows")
	}
	for _, row := range models {
		if len(row) != len(target) {
			return nil, errors.New(errors.KindSolverFailure,
				"model row length %d does not match target length %d",
				len(row), len(target))
		}
	}
	s := &QPSolver{
		target: target,
		q:      mat.NewSymDense(n, nil),
		c:      make([]float64, n),
		n:      n,
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.q.SetSym(i, j, floats.Dot(models[i], models[j]))
		}
		s.c[i] = floats.Dot(models[i], target)
	}
	return s, nil
}

// Solve runs accelerated projected gradient descent to the constrained
// minimum. The projection onto {w ≥ 0, Σw ≤ 1} is exact, so the iterates are
// always feasible; execution is deterministic.
func (s *QPSolver) Solve() error {
	w, obj, err := projectedGradient(s.q, s.c, func(w []float64) {
		projectCappedSimplex(w)
	})
	if err != nil {
		return err
	}
	s.Weights = w
	s.ObjValue = obj
	return nil
}

// Remainder reports the diagnostic residual 2·obj + tᵀt after solving.
func (s *QPSolver) Remainder() float64 {
	return 2*s.ObjValue + floats.Dot(s.target, s.target)
}

// projectedGradient minimises ½wᵀQw − cᵀw with FISTA-style acceleration and
// the supplied in-place feasible-set projection.
func projectedGradient(q *mat.SymDense, c []float64, project func([]float64)) ([]float64, float64, error) {
	n := len(c)
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, errors.New(errors.KindSolverFailure,
				"non-finite value in linear term")
		}
	}

	lip := lipschitz(q)
	if lip == 0 {
		// All-zero model rows; the zero weight vector is optimal.
		return make([]float64, n), 0, nil
	}
	step := 1 / lip

	w := make([]float64, n)
	y := make([]float64, n)
	prev := make([]float64, n)
	grad := make([]float64, n)
	tk := 1.0
	for iter := 0; iter < maxIterations; iter++ {
		// grad = Qy − c
		for i := 0; i < n; i++ {
			g := -c[i]
			for j := 0; j < n; j++ {
				g += q.At(i, j) * y[j]
			}
			grad[i] = g
		}
		copy(prev, w)
		for i := 0; i < n; i++ {
			w[i] = y[i] - step*grad[i]
		}
		project(w)

		tkNext := (1 + math.Sqrt(1+4*tk*tk)) / 2
		beta := (tk - 1) / tkNext
		for i := 0; i < n; i++ {
			y[i] = w[i] + beta*(w[i]-prev[i])
		}
		tk = tkNext

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			if d := math.Abs(w[i] - prev[i]); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < convergenceTol {
			break
		}
	}
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, errors.New(errors.KindSolverFailure,
				"iteration diverged")
		}
	}
	return w, objective(q, c, w), nil
}

// lipschitz estimates the largest eigenvalue of Q by power iteration from a
// fixed deterministic start vector.
func lipschitz(q *mat.SymDense) float64 {
	n, _ := q.Dims()
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	floats.Scale(1/math.Sqrt(float64(n)), v)
	next := make([]float64, n)
	lambda := 0.0
	for iter := 0; iter < 100; iter++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += q.At(i, j) * v[j]
			}
			next[i] = sum
		}
		norm := floats.Norm(next, 2)
		if norm == 0 {
			return 0
		}
		lambda = norm
		floats.Scale(1/norm, next)
		copy(v, next)
	}
	// Small safety margin so 1/L remains a descent step.
	return lambda * 1.01
}

func objective(q *mat.SymDense, c []float64, w []float64) float64 {
	n := len(w)
	obj := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += q.At(i, j) * w[j]
		}
		obj += 0.5*w[i]*row - c[i]*w[i]
	}
	return obj
}

// projectCappedSimplex projects w in place onto {w ≥ 0, Σw ≤ 1}: negative
// entries clamp to zero; when the remaining sum exceeds one, w is projected
// onto the probability simplex by the sort-and-threshold rule.
func projectCappedSimplex(w []float64) {
	for i, v := range w {
		if v < 0 {
			w[i] = 0
		}
	}
	if floats.Sum(w) <= 1 {
		return
	}
	sorted := append([]float64(nil), w...)
	sort.Float64s(sorted)
	cum := 0.0
	theta := 0.0
	for k := 0; k < len(sorted); k++ {
		v := sorted[len(sorted)-1-k]
		cum += v
		t := (cum - 1) / float64(k+1)
		if v-t > 0 {
			theta = t
		}
	}
	for i, v := range w {
		w[i] = math.Max(0, v-theta)
	}
}
