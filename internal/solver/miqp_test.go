package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structbio/mcfit/pkg/errors"
)

func countNonzero(w []float64) int {
	n := 0
	for _, v := range w {
		if v > 0 {
			n++
		}
	}
	return n
}

func TestMIQPCardinalityAndThreshold(t *testing.T) {
	models := orthoModels(5, 40)
	target := mixTarget(models, []float64{0.5, 0.3, 0.1, 0.06, 0.04})

	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, miqp.Solve(2, 0.30))

	assert.LessOrEqual(t, countNonzero(miqp.Weights), 2)
	for _, w := range miqp.Weights {
		if w > 0 {
			assert.GreaterOrEqual(t, w, 0.30-1e-6)
		}
		assert.LessOrEqual(t, w, 1+1e-9)
	}
	// The two dominant components are the ones selected.
	assert.Greater(t, miqp.Weights[0], 0.0)
	assert.Greater(t, miqp.Weights[1], 0.0)
}

func TestMIQPFiftyFiftyMixture(t *testing.T) {
	models := orthoModels(4, 40)
	target := mixTarget(models, []float64{0.5, 0.5, 0, 0})

	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, miqp.Solve(2, 0.30))

	assert.InDelta(t, 0.5, miqp.Weights[0], 1e-3)
	assert.InDelta(t, 0.5, miqp.Weights[1], 1e-3)
	assert.Zero(t, miqp.Weights[2])
	assert.Zero(t, miqp.Weights[3])
}

func TestMIQPCardinalityOne(t *testing.T) {
	models := orthoModels(3, 30)
	target := mixTarget(models, []float64{0.9, 0.1, 0})

	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, miqp.Solve(1, 0.30))

	assert.Equal(t, 1, countNonzero(miqp.Weights))
	assert.Greater(t, miqp.Weights[0], 0.30-1e-6)
}

func TestMIQPSecondSolveIsStable(t *testing.T) {
	models := orthoModels(4, 40)
	target := mixTarget(models, []float64{0.55, 0.45, 0, 0})

	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, miqp.Solve(2, 0.30))
	first := append([]float64(nil), miqp.Weights...)
	require.NoError(t, miqp.Solve(2, 0.30))
	assert.Equal(t, first, miqp.Weights)
}

func TestMIQPInvalidArguments(t *testing.T) {
	models := orthoModels(2, 10)
	target := mixTarget(models, []float64{1, 0})
	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)

	err = miqp.Solve(0, 0.30)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
	err = miqp.Solve(2, 0)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
	err = miqp.Solve(2, 1.5)
	assert.True(t, errors.IsKind(err, errors.KindSolverFailure))
}

func TestMIQPPreselectionLargePool(t *testing.T) {
	models := orthoModels(24, 96)
	weights := make([]float64, 24)
	weights[3] = 0.6
	weights[17] = 0.4
	target := mixTarget(models, weights)

	miqp, err := NewMIQPSolver(target, models)
	require.NoError(t, err)
	require.NoError(t, miqp.Solve(2, 0.30))

	assert.LessOrEqual(t, countNonzero(miqp.Weights), 2)
	assert.Greater(t, miqp.Weights[3], 0.0)
	assert.Greater(t, miqp.Weights[17], 0.0)
}

func TestProjectBoxSum(t *testing.T) {
	w := []float64{0.9, 0.9}
	projectBoxSum(w, 0.3, 1, 1)
	assert.InDelta(t, 1.0, w[0]+w[1], 1e-6)
	assert.GreaterOrEqual(t, w[0], 0.3)
	assert.GreaterOrEqual(t, w[1], 0.3)

	w = []float64{0.1, 2.0}
	projectBoxSum(w, 0.3, 1, 1)
	assert.GreaterOrEqual(t, w[0], 0.3-1e-9)
	assert.LessOrEqual(t, w[1], 1.0)
	assert.LessOrEqual(t, w[0]+w[1], 1+1e-6)
}