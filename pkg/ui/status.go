package ui

import (
	"fmt"
	"os"

	"pubmedscraper/pkg/checkpoint"
	"pubmedscraper/pkg/storage"
)

// TermStatuses derives one status row per term from the checkpoint and
// the term files in store
func TermStatuses(terms []string, cp *checkpoint.Checkpoint, store *storage.Manager) ([]TermStatus, error) {
	rows := make([]TermStatus, 0, len(terms))
	for i, term := range terms {
		row := TermStatus{
			Index: i,
			Term:  term,
			State: stateOf(i, cp),
		}

		path := store.TermPath(term)
		set, ok, err := store.ReadSet(path)
		if err != nil {
			return nil, err
		}
		if ok {
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", path, err)
			}
			row.Exists = true
			row.Unique = set.Len()
			row.Bytes = info.Size()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stateOf(index int, cp *checkpoint.Checkpoint) TermState {
	switch {
	case cp == nil:
		return StatePending
	case cp.Complete, index < cp.Position.TermIndex:
		return StateDone
	case index == cp.Position.TermIndex:
		return StateInProgress
	default:
		return StatePending
	}
}
