// Package transformer implements the density forward model: atoms are painted
// into a 3D grid as radial scattering-factor lookups, and a mask operator
// marks the voxel footprint around them.
package transformer

import (
	"math"

	"github.com/structbio/mcfit/internal/elements"
	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/xmap"
)

// AtomSource is the atom view the transformer renders. Both *structure.Residue
// and *structure.Structure satisfy it.
type AtomSource interface {
	NAtoms() int
	AtomCoor(i int) structure.Vec3
	AtomElement(i int) string
	AtomB(i int) float64
	AtomQ(i int) float64
	AtomActive(i int) bool
}

// radialStep is the sampling interval of the radial lookup tables, in
// Angstrom; lookups interpolate linearly between samples.
const radialStep = 0.01

// quadratureIntervals is the (even) Simpson interval count for the
// band-limited scattering integral.
const quadratureIntervals = 300

// Transformer renders an atom source into a density grid.
//
// Complex mode (simple unset) computes each atom's radial density from its
// element's scattering factors band-limited to [SMin, SMax] with a Gaussian
// envelope from its B-factor. Simple mode deposits a normalized Gaussian of
// width derived from the B-factor alone.
type Transformer struct {
	Map *xmap.XMap

	src        AtomSource
	smin, smax float64
	simple     bool
	scattering string

	// One radial lookup per atom, shared between atoms with equal
	// (element, B); tables[i] samples ρ(k·radialStep).
	tables [][]float64
	rmax   []float64
}

// New constructs a transformer over src writing into grid. smin/smax are the
// scattering-vector band limits in 1/Angstrom, used in complex mode; simple
// selects simple mode. scattering is "xray" or "electron".
func New(src AtomSource, grid *xmap.XMap, smin, smax float64, simple bool, scattering string) *Transformer {
	return &Transformer{
		Map:        grid,
		src:        src,
		smin:       smin,
		smax:       smax,
		simple:     simple,
		scattering: scattering,
	}
}

// Initialize builds the per-atom radial density lookup tables. Must be called
// before Density; Mask and Reset do not need it.
func (t *Transformer) Initialize() {
	n := t.src.NAtoms()
	t.tables = make([][]float64, n)
	t.rmax = make([]float64, n)

	type key struct {
		element string
		b       int64
	}
	cache := make(map[key][]float64)
	for i := 0; i < n; i++ {
		b := t.src.AtomB(i)
		t.rmax[i] = cutoffRadius(b)
		k := key{t.src.AtomElement(i), int64(math.Round(b * 100))}
		if tab, ok := cache[k]; ok {
			t.tables[i] = tab
			continue
		}
		var tab []float64
		if t.simple {
			tab = t.simpleTable(t.src.AtomElement(i), b, t.rmax[i])
		} else {
			tab = t.bandLimitedTable(t.src.AtomElement(i), b, t.rmax[i])
		}
		cache[k] = tab
		t.tables[i] = tab
	}
}

// cutoffRadius bounds an atom's density footprint: the radius where the
// B-factor Gaussian envelope has decayed below 1e-5 of its peak, at least
// 2 Angstrom.
func cutoffRadius(b float64) float64 {
	if b < 1 {
		b = 1
	}
	r := math.Sqrt(b*math.Log(1e5)) / (2 * math.Pi)
	return math.Max(r, 2.0)
}

// simpleTable samples the normalized Gaussian ne·(4π/B)^{3/2}·exp(-4π²r²/B).
func (t *Transformer) simpleTable(element string, b, rmax float64) []float64 {
	if b < 1 {
		b = 1
	}
	ne := elements.Factor(element, t.scattering).Eval(0)
	amp := ne * math.Pow(4*math.Pi/b, 1.5)
	w := 4 * math.Pi * math.Pi / b
	n := int(rmax/radialStep) + 2
	tab := make([]float64, n)
	for k := range tab {
		r := float64(k) * radialStep
		tab[k] = amp * math.Exp(-w*r*r)
	}
	return tab
}

// bandLimitedTable samples the radial density
//
//	ρ(r) = ∫_{smin}^{smax} 4π s² f(s) e^{-B s²/4} j₀(4π s r) ds
//
// by Simpson quadrature, with j₀ the zeroth spherical Bessel function.
func (t *Transformer) bandLimitedTable(element string, b, rmax float64) []float64 {
	sf := elements.Factor(element, t.scattering)
	n := int(rmax/radialStep) + 2
	tab := make([]float64, n)
	h := (t.smax - t.smin) / quadratureIntervals
	for k := range tab {
		r := float64(k) * radialStep
		integrand := func(s float64) float64 {
			return 4 * math.Pi * s * s * sf.Eval(s) *
				math.Exp(-b*s*s/4) * sphericalJ0(4*math.Pi*s*r)
		}
		sum := integrand(t.smin) + integrand(t.smax)
		for j := 1; j < quadratureIntervals; j++ {
			s := t.smin + float64(j)*h
			if j%2 == 1 {
				sum += 4 * integrand(s)
			} else {
				sum += 2 * integrand(s)
			}
		}
		tab[k] = sum * h / 3
	}
	return tab
}

func sphericalJ0(x float64) float64 {
	if math.Abs(x) < 1e-8 {
		return 1
	}
	return math.Sin(x) / x
}

// interp evaluates a radial table at r with linear interpolation; beyond the
// table range the density is zero.
func interp(tab []float64, r float64) float64 {
	pos := r / radialStep
	k := int(pos)
	if k+1 >= len(tab) {
		return 0
	}
	frac := pos - float64(k)
	return tab[k]*(1-frac) + tab[k+1]*frac
}

// Density adds the scattering contribution of every active atom, scaled by
// its occupancy, into the grid.
func (t *Transformer) Density() {
	for i := 0; i < t.src.NAtoms(); i++ {
		if !t.src.AtomActive(i) {
			continue
		}
		q := t.src.AtomQ(i)
		tab := t.tables[i]
		rmax := t.rmax[i]
		t.forEachVoxel(t.src.AtomCoor(i), rmax, func(ix, iy, iz int, r float64) {
			t.Map.Add(ix, iy, iz, q*interp(tab, r))
		})
	}
}

// Mask sets every voxel within rmask Angstrom of an active atom to 1.
// Repeated calls accumulate the union footprint.
func (t *Transformer) Mask(rmask float64) {
	for i := 0; i < t.src.NAtoms(); i++ {
		if !t.src.AtomActive(i) {
			continue
		}
		t.forEachVoxel(t.src.AtomCoor(i), rmask, func(ix, iy, iz int, r float64) {
			t.Map.Set(ix, iy, iz, 1)
		})
	}
}

// Reset zeroes the grid. With full it zeroes every voxel; otherwise only the
// density footprint of the current atoms, which keeps the per-candidate
// render loop linear in footprint size.
func (t *Transformer) Reset(full bool) {
	if full {
		t.Map.Fill(0)
		return
	}
	for i := 0; i < t.src.NAtoms(); i++ {
		rmax := cutoffRadius(t.src.AtomB(i))
		t.forEachVoxel(t.src.AtomCoor(i), rmax, func(ix, iy, iz int, r float64) {
			t.Map.Set(ix, iy, iz, 0)
		})
	}
}

// forEachVoxel visits every grid voxel within radius of the Cartesian point,
// iterating the local bounding box and wrapping indices into the P1 cell. The
// callback receives wrapped indices and the Cartesian distance.
func (t *Transformer) forEachVoxel(p structure.Vec3, radius float64, fn func(ix, iy, iz int, r float64)) {
	m := t.Map
	vx, vy, vz := m.CartToVoxel(p.X, p.Y, p.Z)
	rows := m.Cell.DeorthRowNorms()
	pad := [3]int{
		int(math.Ceil(radius*rows[0]*float64(m.Shape[0]))) + 1,
		int(math.Ceil(radius*rows[1]*float64(m.Shape[1]))) + 1,
		int(math.Ceil(radius*rows[2]*float64(m.Shape[2]))) + 1,
	}
	c := [3]int{int(math.Round(vx)), int(math.Round(vy)), int(math.Round(vz))}
	for iz := c[2] - pad[2]; iz <= c[2]+pad[2]; iz++ {
		for iy := c[1] - pad[1]; iy <= c[1]+pad[1]; iy++ {
			for ix := c[0] - pad[0]; ix <= c[0]+pad[0]; ix++ {
				dx, dy, dz := m.Cell.FracToCart(
					(float64(ix)-vx)/float64(m.Shape[0]),
					(float64(iy)-vy)/float64(m.Shape[1]),
					(float64(iz)-vz)/float64(m.Shape[2]))
				r := math.Sqrt(dx*dx + dy*dy + dz*dz)
				if r <= radius {
					fn(ix, iy, iz, r)
				}
			}
		}
	}
}
