package elements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVdWRadius(t *testing.T) {
	assert.InDelta(t, 1.70, VdWRadius("C"), 1e-12)
	assert.InDelta(t, 1.55, VdWRadius("N"), 1e-12)
	assert.InDelta(t, 1.52, VdWRadius("O"), 1e-12)
	assert.InDelta(t, 1.80, VdWRadius("S"), 1e-12)
	// Unknown elements fall back to carbon.
	assert.InDelta(t, 1.70, VdWRadius("XX"), 1e-12)
}

func TestXrayFactorAtZeroApproximatesElectronCount(t *testing.T) {
	tests := map[string]float64{"C": 6, "N": 7, "O": 8, "S": 16}
	for element, z := range tests {
		f := Factor(element, "xray").Eval(0)
		assert.InDelta(t, z, f, 0.05, element)
	}
}

func TestFactorDecaysWithS(t *testing.T) {
	for _, table := range []string{"xray", "electron"} {
		sf := Factor("C", table)
		assert.Greater(t, sf.Eval(0), sf.Eval(0.3), table)
		assert.Greater(t, sf.Eval(0.3), sf.Eval(0.8), table)
	}
}

func TestUnknownElementFallsBackToCarbon(t *testing.T) {
	assert.Equal(t, Factor("C", "xray"), Factor("ZZ", "xray"))
	assert.Equal(t, Factor("C", "electron"), Factor("ZZ", "electron"))
}
