package usecase

import (
	"sort"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

// Merge combines the outcome of attempted symbols with the symbols that were
// already fresh. Fresh symbols map to true and count as skipped, never as
// attempted. The caller fills Kind, Batches, Aborted and the
// timestamps of the summary.
func Merge(attempted map[string]bool, alreadyFresh []string) (map[string]bool, entity.SyncSummary) {
	results := make(map[string]bool, len(attempted)+len(alreadyFresh))
	summary := entity.SyncSummary{Due: len(attempted)}

	for s, ok := range attempted {
		results[s] = ok
		if ok {
			summary.Refreshed++
		} else {
			summary.Failed++
			summary.FailedSymbols = append(summary.FailedSymbols, s)
		}
	}
	for _, s := range alreadyFresh {
		results[s] = true
	}
	summary.Skipped = len(alreadyFresh)
	summary.Succeeded = summary.Refreshed + summary.Skipped
	summary.Checked = len(results)
	sort.Strings(summary.FailedSymbols)

	return results, summary
}
