// Package cleanup implements pruning of old activity journal entries.
package cleanup

import (
	"fmt"
	"sort"
	"time"

	"github.com/taskvoice/taskvoice/internal/log"
)

// Journal is the subset of *log.Journal that pruning needs.
type Journal interface {
	ReadAll() ([]log.Entry, error)
	Rewrite(entries []log.Entry) error
}

// PruneByAge removes journal entries older than maxAgeDays, measured from
// now. If dryRun is true, the journal is left untouched and the function
// only returns the entries that would be removed.
func PruneByAge(j Journal, maxAgeDays int, now time.Time, dryRun bool) ([]log.Entry, error) {
	cutoff := now.AddDate(0, 0, -maxAgeDays)
	return prune(j, dryRun, func(entries []log.Entry) (keep, drop []log.Entry) {
		for _, e := range entries {
			if e.Timestamp.Before(cutoff) {
				drop = append(drop, e)
			} else {
				keep = append(keep, e)
			}
		}
		return keep, drop
	})
}

// PruneKeepRecent removes all but the keep most recent entries. If dryRun
// is true, the journal is left untouched.
func PruneKeepRecent(j Journal, keep int, dryRun bool) ([]log.Entry, error) {
	return prune(j, dryRun, func(entries []log.Entry) ([]log.Entry, []log.Entry) {
		// Oldest first, so the tail is what survives.
		sort.SliceStable(entries, func(a, b int) bool {
			return log.Newer(entries[b], entries[a])
		})
		if len(entries) <= keep {
			return entries, nil
		}
		cut := len(entries) - keep
		return entries[cut:], entries[:cut]
	})
}

func prune(j Journal, dryRun bool, split func([]log.Entry) (keep, drop []log.Entry)) ([]log.Entry, error) {
	entries, err := j.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	keep, drop := split(entries)
	if len(drop) == 0 || dryRun {
		return drop, nil
	}
	if err := j.Rewrite(keep); err != nil {
		return nil, fmt.Errorf("rewriting journal: %w", err)
	}
	return drop, nil
}
