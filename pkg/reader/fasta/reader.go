// Package fasta provides a streaming reader for protein FASTA files
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Protein is one FASTA record.
type Protein struct {
	Accession   string // First word of the header
	Description string // Rest of the header
	Sequence    string // Upper-case residues, whitespace removed
}

// Reader provides streaming access to FASTA files
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	header  string // header of the next record, read ahead
	current *Protein
	err     error
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: sc}
}

// Next advances to the next protein. Returns false when no more proteins or error.
func (r *Reader) Next() bool {
	r.current = nil
	if r.err != nil {
		return false
	}

	var seq strings.Builder
	header := r.header
	r.header = ""

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || line[0] == ';' {
			continue
		}

		if line[0] == '>' {
			if header != "" {
				r.header = line[1:]
				r.current = newProtein(header, seq.String())
				return true
			}
			header = line[1:]
			continue
		}

		if header == "" {
			r.err = fmt.Errorf("line %d: sequence before first header", r.lineNum)
			return false
		}
		for _, f := range strings.Fields(line) {
			seq.WriteString(strings.ToUpper(strings.TrimRight(f, "*")))
		}
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
		return false
	}
	if header == "" {
		return false
	}
	r.current = newProtein(header, seq.String())
	return true
}

// Protein returns the current protein
func (r *Reader) Protein() *Protein {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func newProtein(header, seq string) *Protein {
	header = strings.TrimSpace(header)
	acc, desc, _ := strings.Cut(header, " ")
	return &Protein{
		Accession:   acc,
		Description: strings.TrimSpace(desc),
		Sequence:    seq,
	}
}
