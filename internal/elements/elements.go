// Package elements holds the per-element constant tables used by the clash
// check and the density forward model: van-der-Waals radii and parameterised
// atomic scattering factors for X-ray and electron diffraction.
//
// X-ray coefficients are the four-Gaussian Cromer-Mann fits from the
// International Tables for Crystallography Vol. C; electron coefficients are
// the five-Gaussian fits of Peng et al. (1996), Acta Cryst. A52, 257-276.
package elements

import "math"

// ScatteringFactor parameterises f(s) = sum_i A[i]*exp(-B[i]*s^2) + C with
// s the scattering vector magnitude in 1/Angstrom.
type ScatteringFactor struct {
	A []float64
	B []float64
	C float64
}

// Eval evaluates the scattering factor at s (1/Angstrom).
func (sf ScatteringFactor) Eval(s float64) float64 {
	s2 := s * s
	f := sf.C
	for i, a := range sf.A {
		f += a * math.Exp(-sf.B[i]*s2)
	}
	return f
}

// vdwRadii lists van-der-Waals radii in Angstrom. Lookups for elements not in
// the table fall back to carbon.
var vdwRadii = map[string]float64{
	"H":  1.20,
	"C":  1.70,
	"N":  1.55,
	"O":  1.52,
	"P":  1.80,
	"S":  1.80,
	"SE": 1.90,
}

// defaultVdwRadius is used for elements missing from the table.
const defaultVdwRadius = 1.70

// VdWRadius returns the van-der-Waals radius for an element symbol.
func VdWRadius(element string) float64 {
	if r, ok := vdwRadii[element]; ok {
		return r
	}
	return defaultVdwRadius
}

// xrayFactors: Cromer-Mann four-Gaussian coefficients.
var xrayFactors = map[string]ScatteringFactor{
	"H": {
		A: []float64{0.489918, 0.262003, 0.196767, 0.049879},
		B: []float64{20.6593, 7.74039, 49.5519, 2.20159},
		C: 0.001305,
	},
	"C": {
		A: []float64{2.31000, 1.02000, 1.58860, 0.865000},
		B: []float64{20.8439, 10.2075, 0.568700, 51.6512},
		C: 0.215600,
	},
	"N": {
		A: []float64{12.2126, 3.13220, 2.01250, 1.16630},
		B: []float64{0.005700, 9.89330, 28.9975, 0.582600},
		C: -11.5290,
	},
	"O": {
		A: []float64{3.04850, 2.28680, 1.54630, 0.867000},
		B: []float64{13.2771, 5.70110, 0.323900, 32.9089},
		C: 0.250800,
	},
	"P": {
		A: []float64{6.43450, 4.17910, 1.78000, 1.49080},
		B: []float64{1.90670, 27.1570, 0.526000, 68.1645},
		C: 1.11490,
	},
	"S": {
		A: []float64{6.90530, 5.20340, 1.43790, 1.58630},
		B: []float64{1.46790, 22.2151, 0.253600, 56.1720},
		C: 0.866900,
	},
	"SE": {
		A: []float64{17.0006, 5.81960, 3.97310, 4.35430},
		B: []float64{2.40980, 0.272600, 15.2372, 43.8163},
		C: 2.84090,
	},
}

// electronFactors: Peng five-Gaussian coefficients.
var electronFactors = map[string]ScatteringFactor{
	"H": {
		A: []float64{0.0349, 0.1201, 0.1970, 0.0573, 0.1195},
		B: []float64{0.5347, 3.5867, 12.3471, 18.9525, 38.6269},
	},
	"C": {
		A: []float64{0.0893, 0.2563, 0.7570, 1.0487, 0.3575},
		B: []float64{0.2465, 1.7100, 6.4094, 18.6113, 50.2523},
	},
	"N": {
		A: []float64{0.1022, 0.3219, 0.7982, 0.8197, 0.1715},
		B: []float64{0.2451, 1.7481, 6.1925, 17.3894, 48.1431},
	},
	"O": {
		A: []float64{0.0974, 0.2921, 0.6910, 0.6990, 0.2039},
		B: []float64{0.2067, 1.3815, 4.6943, 12.7105, 32.4726},
	},
	"P": {
		A: []float64{0.2548, 0.6106, 1.4541, 2.3204, 3.8538},
		B: []float64{0.2908, 1.8740, 8.5176, 24.3434, 63.2996},
	},
	"S": {
		A: []float64{0.2497, 0.5628, 1.3899, 2.1865, 3.8653},
		B: []float64{0.2681, 1.6711, 7.0267, 19.5377, 68.1645},
	},
}

// Factor returns the scattering factor for an element under the given table
// ("xray" or "electron"). Unknown elements fall back to carbon.
func Factor(element, table string) ScatteringFactor {
	var m map[string]ScatteringFactor
	if table == "electron" {
		m = electronFactors
	} else {
		m = xrayFactors
	}
	if sf, ok := m[element]; ok {
		return sf
	}
	return m["C"]
}
