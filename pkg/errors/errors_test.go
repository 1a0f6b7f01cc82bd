package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesKindAndMessage(t *testing.T) {
	err := New(KindNoViableConformers, "iteration %d", 3)
	assert.Equal(t, "no-viable-conformers: iteration 3", err.Error())
	assert.True(t, IsKind(err, KindNoViableConformers))
	assert.False(t, IsKind(err, KindSolverFailure))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, KindIOFailure, "writing conformer_1.pdb")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindIOFailure))
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindIOFailure, "nothing"))
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	inner := New(KindMaskEmpty, "zero voxels")
	outer := fmt.Errorf("fit failed: %w", inner)
	assert.True(t, IsKind(outer, KindMaskEmpty))
	assert.True(t, stderrors.Is(outer, &Error{Kind: KindMaskEmpty}))
}

func TestKindStrings(t *testing.T) {
	tests := map[Kind]string{
		KindStructureIncomplete: "structure-incomplete",
		KindNoViableConformers:  "no-viable-conformers",
		KindSolverFailure:       "solver-failure",
		KindIOFailure:           "io-failure",
		KindMaskEmpty:           "mask-empty",
		KindNotImplemented:      "not-implemented",
		KindInvalidParam:        "invalid-param",
		KindUnknown:             "unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}
