package batch

import (
	"log/slog"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
)

// Summary counts terminal outcomes for one run.
type Summary struct {
	RunID    string
	Listed   int
	Uploaded int
	Outcomes map[constants.Outcome]int
	// Cancelled is set when the context ended before every listed file was handled.
	Cancelled bool
}

func newSummary(runID string) Summary {
	return Summary{RunID: runID, Outcomes: make(map[constants.Outcome]int, len(constants.AllOutcomes))}
}

func (s *Summary) add(o constants.Outcome) {
	if s.Outcomes == nil {
		s.Outcomes = make(map[constants.Outcome]int)
	}
	s.Outcomes[o]++
}

func (s Summary) Count(o constants.Outcome) int {
	return s.Outcomes[o]
}

// Handled is the number of files that reached a terminal state.
func (s Summary) Handled() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}

func (s Summary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.Int("listed", s.Listed),
		slog.Int("uploaded", s.Uploaded),
	}
	for _, o := range constants.AllOutcomes {
		attrs = append(attrs, slog.Int(string(o), s.Outcomes[o]))
	}
	if s.Cancelled {
		attrs = append(attrs, slog.Bool("cancelled", true))
	}
	return slog.GroupValue(attrs...)
}
