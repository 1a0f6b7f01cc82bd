package xmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/structbio/mcfit/pkg/errors"
)

// ccp4Header is the fixed 1024-byte CCP4/MRC map header (words 1-56 plus
// label block), little-endian on disk.
type ccp4Header struct {
	NC, NR, NS          int32
	Mode                int32
	NCStart, NRStart    int32
	NSStart             int32
	NX, NY, NZ          int32
	CellA, CellB, CellC float32
	Alpha, Beta, Gamma  float32
	MapC, MapR, MapS    int32
	AMin, AMax, AMean   float32
	ISpg                int32
	NSymBt              int32
	Extra               [25]int32
	OriginX             float32
	OriginY             float32
	OriginZ             float32
	MapLabel            [4]byte
	MachineStamp        [4]byte
	ARms                float32
	NLabl               int32
	Labels              [800]byte
}

const ccp4ModeFloat32 = 2

// WriteCCP4 writes the map as a mode-2 (float32) CCP4/MRC file with axis
// order x, y, z.
func (m *XMap) WriteCCP4(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := m.writeCCP4To(w); err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "write %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "write %s", path)
	}
	return nil
}

func (m *XMap) writeCCP4To(w io.Writer) error {
	min, max, mean, rms := m.stats()
	ispg := int32(1)
	if m.SpaceGroup != "P1" && m.SpaceGroup != "" {
		// Only P1 maps are produced by the core; keep the label honest
		// for anything else.
		ispg = 0
	}
	h := ccp4Header{
		NC: int32(m.Shape[0]), NR: int32(m.Shape[1]), NS: int32(m.Shape[2]),
		Mode: ccp4ModeFloat32,
		NX:   int32(m.Shape[0]), NY: int32(m.Shape[1]), NZ: int32(m.Shape[2]),
		CellA: float32(m.Cell.A), CellB: float32(m.Cell.B), CellC: float32(m.Cell.C),
		Alpha: float32(m.Cell.Alpha), Beta: float32(m.Cell.Beta), Gamma: float32(m.Cell.Gamma),
		MapC: 1, MapR: 2, MapS: 3,
		AMin: float32(min), AMax: float32(max), AMean: float32(mean),
		ISpg:         ispg,
		MapLabel:     [4]byte{'M', 'A', 'P', ' '},
		MachineStamp: [4]byte{0x44, 0x41, 0, 0},
		ARms:         float32(rms),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	data := make([]float32, len(m.Array))
	for i, v := range m.Array {
		data[i] = float32(v)
	}
	return binary.Write(w, binary.LittleEndian, data)
}

// ReadCCP4 reads a mode-2 CCP4/MRC map. Only the axis order x, y, z
// (MAPC,R,S = 1,2,3) is accepted.
func ReadCCP4(path string) (*XMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindIOFailure, "open %s", path)
	}
	defer f.Close()
	m, err := readCCP4From(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindIOFailure, "read %s", path)
	}
	return m, nil
}

func readCCP4From(r io.Reader) (*XMap, error) {
	var h ccp4Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.Mode != ccp4ModeFloat32 {
		return nil, fmt.Errorf("unsupported map mode %d (want %d)", h.Mode, ccp4ModeFloat32)
	}
	if h.MapC != 1 || h.MapR != 2 || h.MapS != 3 {
		return nil, fmt.Errorf("unsupported axis order %d,%d,%d", h.MapC, h.MapR, h.MapS)
	}
	if h.NSymBt > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(h.NSymBt)); err != nil {
			return nil, fmt.Errorf("skipping symmetry block: %w", err)
		}
	}
	shape := [3]int{int(h.NC), int(h.NR), int(h.NS)}
	cell := NewUnitCell(float64(h.CellA), float64(h.CellB), float64(h.CellC),
		float64(h.Alpha), float64(h.Beta), float64(h.Gamma))
	m := Zeros(cell, shape)
	data := make([]float32, len(m.Array))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("reading voxel data: %w", err)
	}
	for i, v := range data {
		m.Array[i] = float64(v)
	}
	if h.ISpg == 1 {
		m.SpaceGroup = "P1"
	}
	return m, nil
}

func (m *XMap) stats() (min, max, mean, rms float64) {
	if len(m.Array) == 0 {
		return 0, 0, 0, 0
	}
	min, max = m.Array[0], m.Array[0]
	var sum, sumsq float64
	for _, v := range m.Array {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
		sumsq += v * v
	}
	n := float64(len(m.Array))
	mean = sum / n
	rms = math.Sqrt(sumsq/n - mean*mean)
	return
}
