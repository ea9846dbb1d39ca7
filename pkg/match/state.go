package match

// Phase is the position of a match in its scan sequence.
type Phase int

const (
	Start Phase = iota
	ScanningForward
	ScanningBackward
	Done
)

func (p Phase) String() string {
	switch p {
	case ScanningForward:
		return "scanning-forward"
	case ScanningBackward:
		return "scanning-backward"
	case Done:
		return "done"
	}
	return "start"
}

// State is the per-candidate scratch of a Matcher. It is reused across candidates and must
// not be shared between goroutines.
type State struct {
	matched []float64
	phase   Phase
}

// Reset clears the matched buffer for numPeaks peaks, reusing its storage.
func (s *State) Reset(numPeaks int) {
	if cap(s.matched) < numPeaks {
		s.matched = make([]float64, numPeaks)
	} else {
		s.matched = s.matched[:numPeaks]
		for i := range s.matched {
			s.matched[i] = 0
		}
	}
	s.phase = Start
}

// Combine raises the score of peak i to score. Scores never decrease within a pass.
func (s *State) Combine(i int, score float64) {
	if score > s.matched[i] {
		s.matched[i] = score
	}
}

// Matched returns the best score recorded for each peak. Zero means unmatched.
func (s *State) Matched() []float64 { return s.matched }

// Phase returns the current phase.
func (s *State) Phase() Phase { return s.phase }

func (s *State) totals(unmatchedScore float64) (score float64, unmatched int) {
	for _, v := range s.matched {
		if v == 0 {
			unmatched++
			score += unmatchedScore
		} else {
			score += v
		}
	}
	return score, unmatched
}
