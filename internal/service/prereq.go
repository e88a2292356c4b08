package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"givebox/internal/model"
)

// MissingPrerequisites returns the sequence numbers of active giveaways the
// user must still complete before claiming g, in ascending order. A giveaway
// without a prerequisite threshold has no prerequisites.
func MissingPrerequisites(ctx context.Context, store Store, g model.Giveaway, userID int64) ([]int, error) {
	if g.PrereqThreshold == nil {
		return nil, nil
	}

	// ListActiveGiveaways is already ordered by ascending sequence
	active, err := store.ListActiveGiveaways(ctx, g.BotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active giveaways: %w", err)
	}

	var missing []int
	for _, pr := range active {
		if pr.Sequence == nil || *pr.Sequence > *g.PrereqThreshold {
			continue
		}
		approved, err := store.HasApprovedAttempt(ctx, userID, pr.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check attempt for giveaway %d: %w", pr.ID, err)
		}
		if !approved {
			missing = append(missing, *pr.Sequence)
		}
	}
	return missing, nil
}

// JoinSequences renders sequence numbers the way users read them:
// "1", "1 and 2", "1, 2 and 3".
func JoinSequences(seqs []int) string {
	parts := make([]string, len(seqs))
	for i, s := range seqs {
		parts[i] = strconv.Itoa(s)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
