package xmap

// XMap is a real-valued density grid over one unit cell. Values are stored in
// a flat array with x the fastest axis; indexing wraps modularly, which is the
// P1 working assumption of the fitting core.
type XMap struct {
	Cell       UnitCell
	Shape      [3]int // nx, ny, nz
	Array      []float64
	SpaceGroup string
}

// Zeros allocates a zero-filled map with the given cell and shape.
func Zeros(cell UnitCell, shape [3]int) *XMap {
	return &XMap{
		Cell:       cell,
		Shape:      shape,
		Array:      make([]float64, shape[0]*shape[1]*shape[2]),
		SpaceGroup: "P1",
	}
}

// ZerosLike allocates a zero map with the same cell and shape as m. The model
// grid used during fitting is allocated once per residue this way and reset
// between passes rather than reallocated.
func (m *XMap) ZerosLike() *XMap {
	return Zeros(m.Cell, m.Shape)
}

// SetSpaceGroup overrides the space group label. The fitting core reduces the
// working model grid to P1 for speed.
func (m *XMap) SetSpaceGroup(sg string) { m.SpaceGroup = sg }

// NVoxels returns the total voxel count.
func (m *XMap) NVoxels() int { return len(m.Array) }

// Index maps grid indices to the flat array position with modular
// wrap-around.
func (m *XMap) Index(ix, iy, iz int) int {
	ix = wrap(ix, m.Shape[0])
	iy = wrap(iy, m.Shape[1])
	iz = wrap(iz, m.Shape[2])
	return (iz*m.Shape[1]+iy)*m.Shape[0] + ix
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// At returns the value at (ix, iy, iz), wrapping.
func (m *XMap) At(ix, iy, iz int) float64 { return m.Array[m.Index(ix, iy, iz)] }

// Set stores the value at (ix, iy, iz), wrapping.
func (m *XMap) Set(ix, iy, iz int, v float64) { m.Array[m.Index(ix, iy, iz)] = v }

// Add accumulates into the value at (ix, iy, iz), wrapping.
func (m *XMap) Add(ix, iy, iz int, v float64) { m.Array[m.Index(ix, iy, iz)] += v }

// VoxelToCart converts grid indices to Cartesian Angstrom.
func (m *XMap) VoxelToCart(ix, iy, iz float64) (x, y, z float64) {
	return m.Cell.FracToCart(ix/float64(m.Shape[0]), iy/float64(m.Shape[1]),
		iz/float64(m.Shape[2]))
}

// CartToVoxel converts Cartesian Angstrom to (fractional) grid indices.
func (m *XMap) CartToVoxel(x, y, z float64) (ix, iy, iz float64) {
	fx, fy, fz := m.Cell.CartToFrac(x, y, z)
	return fx * float64(m.Shape[0]), fy * float64(m.Shape[1]),
		fz * float64(m.Shape[2])
}

// Fill sets every voxel to v.
func (m *XMap) Fill(v float64) {
	for i := range m.Array {
		m.Array[i] = v
	}
}

// Sub subtracts other voxel-wise in place. Shapes must match.
func (m *XMap) Sub(other *XMap) {
	for i := range m.Array {
		m.Array[i] -= other.Array[i]
	}
}
