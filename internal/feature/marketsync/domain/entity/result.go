package entity

import "time"

// AttemptStatus classifies a single provider call made for a batch.
type AttemptStatus int

const (
	AttemptSuccess AttemptStatus = iota
	AttemptEmpty
	AttemptTransportError
)

func (s AttemptStatus) String() string {
	switch s {
	case AttemptSuccess:
		return "success"
	case AttemptEmpty:
		return "empty_result"
	case AttemptTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// AttemptOutcome records one provider call for a batch.
type AttemptOutcome struct {
	Attempt int
	Status  AttemptStatus
	Err     error
}

// FailureReason explains why an attempted symbol did not end up refreshed.
type FailureReason string

const (
	ReasonMissing           FailureReason = "missing_from_result"
	ReasonInvalidPayload    FailureReason = "invalid_payload"
	ReasonPersistenceFailed FailureReason = "persistence_failed"
	ReasonBatchAborted      FailureReason = "batch_aborted"
)

// SyncSummary is the operator-facing account of one sync run.
//
// Checked counts every distinct input symbol. Due counts the symbols that were
// attempted, of which Refreshed succeeded and Failed did not. Skipped counts
// symbols that were already fresh. Succeeded counts every symbol whose data is
// current at the end of the run, so Succeeded == Refreshed + Skipped.
type SyncSummary struct {
	Kind          DataKind  `json:"kind"`
	Checked       int       `json:"checked"`
	Due           int       `json:"due"`
	Skipped       int       `json:"skipped"`
	Refreshed     int       `json:"refreshed"`
	Succeeded     int       `json:"succeeded"`
	Failed        int       `json:"failed"`
	Batches       int       `json:"batches"`
	Aborted       bool      `json:"aborted"`
	FailedSymbols []string  `json:"failed_symbols,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// OK reports whether the run refreshed every due symbol without aborting.
func (s SyncSummary) OK() bool {
	return s.Failed == 0 && !s.Aborted
}

// StoreStats describes what the entity store currently holds.
type StoreStats struct {
	SymbolsWithSeries    int64
	SymbolsWithSnapshot  int64
	Candles              int64
	LatestBar            time.Time
	LatestSnapshotUpdate time.Time
}
