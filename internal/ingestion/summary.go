package ingestion

import (
	"time"

	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// RunStatus is the overall verdict on a run.
type RunStatus string

const (
	StatusOK       RunStatus = "ok"
	StatusNoop     RunStatus = "noop"
	StatusDegraded RunStatus = "degraded"
)

// Summary counts what a run did.
type Summary struct {
	RunID      string
	Window     string
	StartedAt  time.Time
	FinishedAt time.Time
	StopReason listing.StopReason

	Pages            int
	Discovered       int
	InScope          int
	OutOfScope       int
	OutsideWindow    int
	SkippedProcessed int
	SkippedDuplicate int
	Fetched          int
	Stored           int
	Inserted         int
	Updated          int
	FetchFailed      int
	StoreFailed      int

	TrackerFlushed int
	TrackerError   string
	Interrupted    bool
}

// Failed is the number of entries that could not be ingested.
func (s *Summary) Failed() int {
	return s.FetchFailed + s.StoreFailed
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Status is degraded when anything failed, noop when nothing new was stored,
// and ok otherwise.
func (s *Summary) Status() RunStatus {
	if s.Failed() > 0 || s.TrackerError != "" || s.StopReason.Failed() {
		return StatusDegraded
	}
	if s.Stored == 0 {
		return StatusNoop
	}
	return StatusOK
}

func (s *Summary) record(o Outcome) {
	switch o.Kind {
	case OutcomeOutOfScope:
		s.OutOfScope++
		return
	case OutcomeOutsideWindow:
		s.OutsideWindow++
	case OutcomeAlreadyProcessed:
		s.SkippedProcessed++
	case OutcomeDuplicateInRun:
		s.SkippedDuplicate++
	case OutcomeFetchFailed:
		s.FetchFailed++
	case OutcomeStoreFailed:
		s.Fetched++
		s.StoreFailed++
	case OutcomeStored:
		s.Fetched++
		s.Stored++
		if o.Result == types.UpsertInserted {
			s.Inserted++
		} else {
			s.Updated++
		}
	}
	s.InScope++
}
