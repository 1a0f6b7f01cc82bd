package xmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitCellOrthogonal(t *testing.T) {
	u := NewUnitCell(20, 30, 40, 90, 90, 90)
	assert.InDelta(t, 24000, u.Volume(), 1e-6)

	x, y, z := u.FracToCart(0.5, 0.5, 0.5)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 15, y, 1e-9)
	assert.InDelta(t, 20, z, 1e-9)

	fx, fy, fz := u.CartToFrac(10, 15, 20)
	assert.InDelta(t, 0.5, fx, 1e-9)
	assert.InDelta(t, 0.5, fy, 1e-9)
	assert.InDelta(t, 0.5, fz, 1e-9)
}

func TestUnitCellTriclinicRoundTrip(t *testing.T) {
	u := NewUnitCell(23.1, 31.7, 42.4, 82.5, 95.3, 104.2)
	for _, p := range [][3]float64{{1, 2, 3}, {-4, 0.5, 17}, {0, 0, 0}} {
		fx, fy, fz := u.CartToFrac(p[0], p[1], p[2])
		x, y, z := u.FracToCart(fx, fy, fz)
		assert.InDelta(t, p[0], x, 1e-9)
		assert.InDelta(t, p[1], y, 1e-9)
		assert.InDelta(t, p[2], z, 1e-9)
	}
}

func TestIndexWraps(t *testing.T) {
	m := Zeros(NewUnitCell(10, 10, 10, 90, 90, 90), [3]int{4, 5, 6})
	assert.Equal(t, m.Index(0, 0, 0), m.Index(4, 5, 6))
	assert.Equal(t, m.Index(3, 4, 5), m.Index(-1, -1, -1))

	m.Set(-1, 0, 0, 2.5)
	assert.InDelta(t, 2.5, m.At(3, 0, 0), 1e-12)
	m.Add(3, 0, 0, 0.5)
	assert.InDelta(t, 3.0, m.At(-1, 0, 0), 1e-12)
}

func TestZerosLike(t *testing.T) {
	m := Zeros(NewUnitCell(10, 10, 10, 90, 90, 90), [3]int{8, 8, 8})
	m.Fill(1)
	z := m.ZerosLike()
	assert.Equal(t, m.Shape, z.Shape)
	assert.Equal(t, "P1", z.SpaceGroup)
	for _, v := range z.Array {
		require.Zero(t, v)
	}
}

func TestCCP4RoundTrip(t *testing.T) {
	m := Zeros(NewUnitCell(15, 18, 21, 90, 90, 90), [3]int{6, 7, 8})
	for i := range m.Array {
		m.Array[i] = float64(i%13) * 0.25
	}
	path := filepath.Join(t.TempDir(), "test.mrc")
	require.NoError(t, m.WriteCCP4(path))

	back, err := ReadCCP4(path)
	require.NoError(t, err)
	assert.Equal(t, m.Shape, back.Shape)
	assert.InDelta(t, m.Cell.A, back.Cell.A, 1e-5)
	assert.InDelta(t, m.Cell.Gamma, back.Cell.Gamma, 1e-5)
	assert.Equal(t, "P1", back.SpaceGroup)
	require.Equal(t, len(m.Array), len(back.Array))
	for i := range m.Array {
		assert.InDelta(t, m.Array[i], back.Array[i], 1e-6)
	}
}
