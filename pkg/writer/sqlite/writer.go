// Package sqlite provides SQLite storage for search results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Date format for SearchTable (ISO 8601)
const searchDateFormat = "2006-01-02 15:04:05"

// Writer handles writing search results to SQLite database files
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	runID        string
	spectrumStmt *sql.Stmt
	matchStmt    *sql.Stmt
	spectrumID   int64
	spectra      int
	matches      int
}

// NewWriter opens (or creates) the database at outputPath and registers a new search run.
// settings is stored verbatim alongside the run.
func NewWriter(outputPath, instrument, settings string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps the transaction and its prepared statements together
	db.SetMaxOpenConns(1)

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.NewString(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.db.QueryRow(`SELECT COALESCE(MAX(SpectrumId), 0) FROM SpectrumTable`).Scan(&w.spectrumID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read spectrum ids: %w", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO SearchTable (RunId, CreationDate, Instrument, Settings, SpectrumCount, MatchCount)
		VALUES (?, ?, ?, ?, 0, 0)
	`, w.runID, time.Now().UTC().Format(searchDateFormat), instrument, settings)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert search run: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier of the search run being written.
func (w *Writer) RunID() string { return w.runID }

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS SearchTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Instrument TEXT,
		Settings TEXT,
		SpectrumCount INTEGER,
		MatchCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES SearchTable(RunId),
		Title TEXT,
		Charge INTEGER,
		PrecursorMZ DOUBLE,
		NeutralMass DOUBLE,
		RetentionTime DOUBLE,
		LibrarySequence TEXT,
		NumPeaks INTEGER,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS MatchTable (
		MatchId INTEGER PRIMARY KEY AUTOINCREMENT,
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		Rank INTEGER,
		Sequence TEXT,
		Protein TEXT,
		Modification TEXT,
		Score DOUBLE,
		Unmatched INTEGER,
		MassError DOUBLE,
		NTermWt DOUBLE,
		CTermWt DOUBLE
	);

	CREATE INDEX IF NOT EXISTS MatchBySpectrum ON MatchTable(SpectrumId);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements opens the write transaction and prepares the insert statements
func (w *Writer) prepareStatements() error {
	var err error

	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.spectrumStmt, err = w.tx.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, RunId, Title, Charge, PrecursorMZ, NeutralMass,
			RetentionTime, LibrarySequence, NumPeaks, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.matchStmt, err = w.tx.Prepare(`
		INSERT INTO MatchTable (
			SpectrumId, Rank, Sequence, Protein, Modification,
			Score, Unmatched, MassError, NTermWt, CTermWt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare match statement: %w", err)
	}

	return nil
}

// WriteResult writes one searched spectrum and its ranked matches
func (w *Writer) WriteResult(spec *core.Spectrum, parent *core.ParentPeak, matches []core.TagMatch) error {
	w.spectrumID++

	// Handle optional retention time
	var rt interface{}
	if spec.RetentionTime != nil {
		rt = *spec.RetentionTime
	}

	var neutral interface{}
	if parent != nil {
		neutral = parent.Mass
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)
	intBlob := encodePeaksFloat64(spec.Peaks, false)

	_, err := w.spectrumStmt.Exec(
		w.spectrumID,
		w.runID,
		spec.Name(),
		spec.Charge,
		spec.PrecursorMZ,
		neutral,
		rt,
		spec.Sequence,
		len(spec.Peaks),
		mzBlob,
		intBlob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}

	for i, m := range matches {
		_, err := w.matchStmt.Exec(
			w.spectrumID,
			i+1,
			m.Sequence,
			m.Protein,
			m.Modification,
			m.Score,
			m.Unmatched,
			m.MassError,
			m.NTermWt,
			m.CTermWt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}

	w.spectra++
	w.matches += len(matches)
	return nil
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMass bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMass {
			value = peak.Mass
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// Finalize records the run totals, commits and closes the database
func (w *Writer) Finalize() error {
	// Close prepared statements
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}
	if w.matchStmt != nil {
		w.matchStmt.Close()
	}

	_, err := w.tx.Exec(`UPDATE SearchTable SET SpectrumCount = ?, MatchCount = ? WHERE RunId = ?`,
		w.spectra, w.matches, w.runID)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		return fmt.Errorf("failed to update search run: %w", err)
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit results: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
