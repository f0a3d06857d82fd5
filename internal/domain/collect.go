package domain

import (
	"log/slog"
)

// IntersectCollected keeps the collected test IDs that were selected, in
// collection order. Selected IDs that pytest did not collect are reported
// as warnings and otherwise ignored.
func IntersectCollected(selected, collected []string) []string {
	wanted := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}

	kept := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(collected))

	for _, id := range collected {
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		if _, ok := wanted[id]; ok {
			kept = append(kept, id)
		}
	}

	for _, id := range selected {
		if _, ok := seen[id]; !ok {
			slog.Warn("Selected test was not collected", "test", id)
		}
	}

	slog.Debug("Collected items filtered", "collected", len(seen), "selected", len(selected), "kept", len(kept))

	return kept
}
