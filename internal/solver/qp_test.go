package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structbio/mcfit/pkg/errors"
)

// mixTarget builds a target vector as a weighted sum of model rows.
func mixTarget(models [][]float64, weights []float64) []float64 {
	target := make([]float64, len(models[0]))
	for i, w := range weights {
		for k, v := range models[i] {
			target[k] += w * v
		}
	}
	return target
}

// orthoModels returns k nearly orthogonal rows of length n.
func orthoModels(k, n int) [][]float64 {
	models := make([][]float64, k)
	for i := range models {
		row := make([]float64, n)
		for j := i; j < n; j += k {
			row[j] = 1 + 0.1*float64(i)
		}
		models[i] = row
	}
	return models
}

func TestQPRecoversMixture(t *testing.T) {
	models := orthoModels(3, 30)
	target := mixTarget(models, []float64{0.4, 0.6, 0})

	qp, err := NewQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, qp.Solve())

	assert.InDelta(t, 0.4, qp.Weights[0], 1e-4)
	assert.InDelta(t, 0.6, qp.Weights[1], 1e-4)
	assert.InDelta(t, 0.0, qp.Weights[2], 1e-4)
}

func TestQPWeightsFeasible(t *testing.T) {
	models := orthoModels(4, 40)
	// An overscaled target pushes the unconstrained optimum outside the
	// simplex; the solution must stay feasible.
	target := mixTarget(models, []float64{1.5, 1.2, 0.9, 0.7})

	qp, err := NewQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, qp.Solve())

	sum := 0.0
	for _, w := range qp.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.LessOrEqual(t, sum, 1+1e-6)
}

func TestQPObjectiveAndRemainder(t *testing.T) {
	models := orthoModels(2, 20)
	target := mixTarget(models, []float64{0.5, 0.5})

	qp, err := NewQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, qp.Solve())

	// A perfectly representable target leaves no residual density:
	// 2·obj + t·t ≈ 0.
	assert.InDelta(t, 0, qp.Remainder(), 1e-3)
	assert.Less(t, qp.ObjValue, 0.0)
}

func TestQPRowLengthMismatch(t *testing.T) {
	_, err := NewQPSolver([]float64{1, 2, 3}, [][]float64{{1, 2}})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
}

func TestQPEmptyModels(t *testing.T) {
	_, err := NewQPSolver([]float64{1}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
}

func TestQPNonFiniteTarget(t *testing.T) {
	qp, err := NewQPSolver([]float64{math.NaN(), 1}, [][]float64{{1, 0}})
	require.NoError(t, err)
	err = qp.Solve()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
}

func TestProjectCappedSimplex(t *testing.T) {
	w := []float64{-0.2, 0.3, 0.4}
	projectCappedSimplex(w)
	assert.Equal(t, 0.0, w[0])
	assert.InDelta(t, 0.3, w[1], 1e-12)
	assert.InDelta(t, 0.4, w[2], 1e-12)

	w = []float64{0.9, 0.8, 0.3}
	projectCappedSimplex(w)
	sum := w[0] + w[1] + w[2]
	assert.InDelta(t, 1.0, sum, 1e-9)
	for _, v := range w {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	// Projection preserves ordering.
	assert.Greater(t, w[0], w[1])
	assert.Greater(t, w[1], w[2])
}
