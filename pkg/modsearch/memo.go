package modsearch

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/match"
)

// memo remembers the most recently scored candidate. The hash only finds the entry; a hit
// also needs the stored residues, shifts and terminal weights to equal the candidate's.
type memo struct {
	valid    bool
	key      uint64
	residues []core.Residue
	shifts   []float64
	nTermWt  float64
	cTermWt  float64
	result   match.Result
	ok       bool

	buf []byte // fingerprint scratch

	hits, misses int
}

func (m *memo) get(key uint64, c match.Candidate) (match.Result, bool, bool) {
	if m.valid && m.key == key && m.holds(c) {
		m.hits++
		return m.result, m.ok, true
	}
	m.misses++
	return match.Result{}, false, false
}

func (m *memo) put(key uint64, c match.Candidate, res match.Result, ok bool) {
	m.valid, m.key, m.result, m.ok = true, key, res, ok
	m.residues = append(m.residues[:0], c.Peptide.Residues...)
	m.shifts = append(m.shifts[:0], c.Peptide.Shifts...)
	m.nTermWt, m.cTermWt = c.NTermWt, c.CTermWt
}

func (m *memo) holds(c match.Candidate) bool {
	return m.nTermWt == c.NTermWt && m.cTermWt == c.CTermWt &&
		slices.Equal(m.residues, c.Peptide.Residues) &&
		slices.Equal(m.shifts, c.Peptide.Shifts)
}

// fingerprint hashes the residues, residue shifts and terminal weights of a candidate.
func (m *memo) fingerprint(c match.Candidate) uint64 {
	pep := c.Peptide
	buf := m.buf[:0]
	for _, r := range pep.Residues {
		buf = append(buf, byte(r))
	}
	for _, s := range pep.Shifts {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s))
	}
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.NTermWt))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.CTermWt))
	m.buf = buf
	return xxhash.Sum64(buf)
}
