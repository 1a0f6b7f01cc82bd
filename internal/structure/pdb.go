package structure

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/structbio/mcfit/pkg/errors"
)

// ReadPDB parses a PDB file into a structure arena. All ATOM and HETATM
// records are kept; parsing stops at END or ENDMDL so only the first model of
// a multi-model file is read.
func ReadPDB(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindIOFailure, "open %s", path)
	}
	defer f.Close()
	s, err := ReadPDBFrom(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindIOFailure, "read %s", path)
	}
	return s, nil
}

// ReadPDBFrom parses PDB records from r.
//
// PDB fixed columns (1-based): 1-6 record, 7-11 serial, 13-16 name,
// 17 altLoc, 18-20 resName, 22 chainID, 23-26 resSeq, 27 iCode,
// 31-38 x, 39-46 y, 47-54 z, 55-60 occupancy, 61-66 tempFactor,
// 77-78 element.
func ReadPDBFrom(r io.Reader) (*Structure, error) {
	s := newEmpty(256)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) >= 6 && (line[0:4] == "ATOM" || line[0:6] == "HETATM") {
			if err := parseAtomLine(s, line); err != nil {
				// Skip malformed lines but continue parsing.
				continue
			}
		}
		if len(line) >= 3 && (line[0:3] == "END") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning PDB records: %w", err)
	}
	return s, nil
}

func parseAtomLine(s *Structure, line string) error {
	if len(line) < 54 {
		return fmt.Errorf("line too short: %d characters", len(line))
	}
	for len(line) < 80 {
		line += " "
	}

	record := strings.TrimSpace(line[0:6])
	name := strings.TrimSpace(line[12:16])
	altLoc := strings.TrimSpace(line[16:17])
	resName := strings.TrimSpace(line[17:20])
	chain := strings.TrimSpace(line[21:22])
	icode := strings.TrimSpace(line[26:27])

	resSeq, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return fmt.Errorf("residue number: %w", err)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	if err != nil {
		return fmt.Errorf("x coordinate: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	if err != nil {
		return fmt.Errorf("y coordinate: %w", err)
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	if err != nil {
		return fmt.Errorf("z coordinate: %w", err)
	}

	q := 1.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(line[54:60]), 64); err == nil {
		q = v
	}
	b := 0.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64); err == nil {
		b = v
	}
	element := strings.TrimSpace(line[76:78])
	if element == "" {
		element = guessElement(name)
	}

	s.Record = append(s.Record, record)
	s.Name = append(s.Name, name)
	s.AltLoc = append(s.AltLoc, altLoc)
	s.ResName = append(s.ResName, resName)
	s.Chain = append(s.Chain, chain)
	s.ResSeq = append(s.ResSeq, resSeq)
	s.ICode = append(s.ICode, icode)
	s.Coor = append(s.Coor, Vec3{X: x, Y: y, Z: z})
	s.Q = append(s.Q, q)
	s.B = append(s.B, b)
	s.Element = append(s.Element, strings.ToUpper(element))
	s.Active = append(s.Active, true)
	return nil
}

// guessElement derives an element symbol from an atom name for files lacking
// columns 77-78. Leading digits (e.g. "1HB") are stripped first.
func guessElement(name string) string {
	trimmed := strings.TrimLeft(name, "0123456789")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "SE") {
		return "SE"
	}
	return trimmed[0:1]
}

// WritePDB writes the structure to a PDB file.
func WritePDB(path string, s *Structure) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "create %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := WritePDBTo(w, s); err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "write %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.KindIOFailure, "write %s", path)
	}
	return nil
}

// WritePDBTo writes ATOM/HETATM records followed by END.
func WritePDBTo(w io.Writer, s *Structure) error {
	for i := 0; i < s.NAtoms(); i++ {
		record := s.Record[i]
		if record == "" {
			record = "ATOM"
		}
		// Atom names shorter than four characters are indented one
		// column per PDB convention.
		name := s.Name[i]
		if len(name) < 4 {
			name = " " + name
		}
		_, err := fmt.Fprintf(w,
			"%-6s%5d %-4s%1s%3s %1s%4d%1s   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
			record, i+1, name, s.AltLoc[i], s.ResName[i], s.Chain[i],
			s.ResSeq[i], s.ICode[i],
			s.Coor[i].X, s.Coor[i].Y, s.Coor[i].Z,
			s.Q[i], s.B[i], s.Element[i])
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "END")
	return err
}
