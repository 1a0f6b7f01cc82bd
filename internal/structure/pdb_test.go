package structure_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/testbuild"
)

const leucinePDB = `ATOM      1  N   LEU A  42      11.104   6.134  -6.504  1.00 12.50           N
ATOM      2  CA  LEU A  42      12.560   6.071  -6.351  1.00 13.10           C
ATOM      3  C   LEU A  42      13.241   7.431  -6.270  1.00 12.80           C
ATOM      4  O   LEU A  42      12.660   8.430  -6.696  1.00 14.00           O
ATOM      5  CB  LEU A  42      12.911   5.249  -5.104  1.00 13.60           C
ATOM      6  CG  LEU A  42      12.414   3.801  -5.103  1.00 15.20           C
ATOM      7  CD1 LEU A  42      12.917   3.088  -3.856  1.00 16.10           C
ATOM      8  CD2 LEU A  42      12.868   3.055  -6.357  1.00 15.90           C
END
`

func TestReadPDBColumns(t *testing.T) {
	s, err := structure.ReadPDBFrom(strings.NewReader(leucinePDB))
	require.NoError(t, err)
	require.Equal(t, 8, s.NAtoms())

	assert.Equal(t, "N", s.Name[0])
	assert.Equal(t, "CD1", s.Name[6])
	assert.Equal(t, "LEU", s.ResName[0])
	assert.Equal(t, "A", s.Chain[0])
	assert.Equal(t, 42, s.ResSeq[0])
	assert.InDelta(t, 11.104, s.Coor[0].X, 1e-9)
	assert.InDelta(t, 6.134, s.Coor[0].Y, 1e-9)
	assert.InDelta(t, -6.504, s.Coor[0].Z, 1e-9)
	assert.InDelta(t, 1.00, s.Q[0], 1e-9)
	assert.InDelta(t, 12.50, s.B[0], 1e-9)
	assert.Equal(t, "C", s.Element[6])
	assert.True(t, s.Active[0])
}

func TestPDBRoundTrip(t *testing.T) {
	s, err := structure.ReadPDBFrom(strings.NewReader(leucinePDB))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, structure.WritePDBTo(&buf, s))
	back, err := structure.ReadPDBFrom(&buf)
	require.NoError(t, err)

	require.Equal(t, s.NAtoms(), back.NAtoms())
	for i := 0; i < s.NAtoms(); i++ {
		assert.Equal(t, s.Name[i], back.Name[i])
		assert.Equal(t, s.ResName[i], back.ResName[i])
		assert.Equal(t, s.Chain[i], back.Chain[i])
		assert.Equal(t, s.ResSeq[i], back.ResSeq[i])
		assert.Equal(t, s.AltLoc[i], back.AltLoc[i])
		// File precision is 0.001 Angstrom.
		assert.InDelta(t, s.Coor[i].X, back.Coor[i].X, 1e-3)
		assert.InDelta(t, s.Coor[i].Y, back.Coor[i].Y, 1e-3)
		assert.InDelta(t, s.Coor[i].Z, back.Coor[i].Z, 1e-3)
	}
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	s := testbuild.Residue("SER", "A", 7, structure.Vec3{X: 3, Y: 4, Z: 5}, []float64{62})
	path := filepath.Join(dir, "ser.pdb")
	require.NoError(t, structure.WritePDB(path, s))

	back, err := structure.ReadPDB(path)
	require.NoError(t, err)
	require.Equal(t, s.NAtoms(), back.NAtoms())
	res := back.FindResidue("A", 7, "")
	require.NotNil(t, res)
	assert.InDelta(t, 62, res.GetChi(1), 0.1)
}

func TestReadPDBSkipsMalformedLines(t *testing.T) {
	text := "ATOM  garbage\n" + leucinePDB
	s, err := structure.ReadPDBFrom(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, 8, s.NAtoms())
}
