package sqlite

import (
	"database/sql"
	"fmt"
	"os"
)

// Run describes one stored search run.
type Run struct {
	ID            string
	CreationDate  string
	Instrument    string
	Settings      string
	SpectrumCount int
	MatchCount    int
}

// Score is one stored match.
type Score struct {
	Spectrum  string
	Charge    int
	Rank      int
	Sequence  string
	Protein   string
	Score     float64
	Unmatched int
	MassError float64
}

func open(path string) (*sql.DB, error) {
	// sql.Open would create an empty database for a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// LoadRuns lists the search runs stored in a results database, oldest first.
func LoadRuns(path string) ([]Run, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT RunId, CreationDate, Instrument, Settings, SpectrumCount, MatchCount
		FROM SearchTable ORDER BY CreationDate, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreationDate, &r.Instrument, &r.Settings, &r.SpectrumCount, &r.MatchCount); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadScores returns the stored matches of a run with rank at most maxRank, in spectrum and
// rank order. An empty runID selects every run; maxRank of 0 selects every rank.
func LoadScores(path, runID string, maxRank int) ([]Score, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT s.Title, s.Charge, m.Rank, m.Sequence, m.Protein, m.Score, m.Unmatched, m.MassError
		FROM MatchTable m JOIN SpectrumTable s ON s.SpectrumId = m.SpectrumId
		WHERE (? = '' OR s.RunId = ?) AND (? = 0 OR m.Rank <= ?)
		ORDER BY s.SpectrumId, m.Rank
	`, runID, runID, maxRank, maxRank)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		if err := rows.Scan(&s.Spectrum, &s.Charge, &s.Rank, &s.Sequence, &s.Protein, &s.Score, &s.Unmatched, &s.MassError); err != nil {
			return nil, fmt.Errorf("failed to read score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
