package ingestion

import "github.com/divyanshwrite/Philippines-Automation/internal/types"

// OutcomeKind is what happened to one listing entry.
type OutcomeKind string

const (
	OutcomeOutOfScope       OutcomeKind = "out_of_scope"
	OutcomeOutsideWindow    OutcomeKind = "outside_window"
	OutcomeAlreadyProcessed OutcomeKind = "already_processed"
	OutcomeDuplicateInRun   OutcomeKind = "duplicate_in_run"
	OutcomeFetchFailed      OutcomeKind = "fetch_failed"
	OutcomeStoreFailed      OutcomeKind = "store_failed"
	OutcomeStored           OutcomeKind = "stored"
)

// Outcome is the result of dispatching one entry.
type Outcome struct {
	Kind   OutcomeKind
	URL    string
	Result types.UpsertResult // set for OutcomeStored
	Chars  int                // stored body length
	Err    error
}

// Networked reports whether producing the outcome touched the network, which
// is what the item delay paces.
func (o Outcome) Networked() bool {
	switch o.Kind {
	case OutcomeFetchFailed, OutcomeStoreFailed, OutcomeStored:
		return true
	}
	return false
}

// Failed reports whether the outcome counts as a failure.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeFetchFailed || o.Kind == OutcomeStoreFailed
}
