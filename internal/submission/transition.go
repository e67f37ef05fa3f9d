package submission

import "errors"

// ErrInvalidTransition covers review decisions the lifecycle does not allow,
// e.g. rejecting an already rejected submission a second time.
var ErrInvalidTransition = errors.New("invalid submission status transition")

// LedgerDelta is the adjustment a lifecycle step makes to the owning
// participant's running totals. Applied with atomic SQL increments, never
// read-modify-write.
type LedgerDelta struct {
	Points int
	Tasks  int
}

func (d LedgerDelta) IsZero() bool {
	return d.Points == 0 && d.Tasks == 0
}

// CreationDelta is applied when a submission is first created, or when a
// rejected one is resubmitted. The task counts as attempted immediately;
// points only arrive on approval.
func CreationDelta() LedgerDelta {
	return LedgerDelta{Tasks: 1}
}

// ReviewDelta computes the ledger adjustment for an admin decision moving a
// submission from its current state to next.
//
// currentPoints is the points value stored on the submission right now (0 if
// never approved or reset by a resubmission), nextPoints the value the admin
// supplies on approval. The rules keep two invariants: totalPoints equals the
// sum of points over currently-approved submissions, and taskCount equals the
// number of submissions not sitting in a rejected-without-retry state.
func ReviewDelta(current Status, currentPoints int, next Status, nextPoints int) (LedgerDelta, error) {
	switch next {
	case StatusApproved:
		// A second approval edits the score in place: only the difference
		// moves, so correcting 50 -> 80 adds 30, not 80.
		prev := 0
		if current == StatusApproved {
			prev = currentPoints
		}
		return LedgerDelta{Points: nextPoints - prev}, nil

	case StatusRejected:
		switch current {
		case StatusApproved:
			return LedgerDelta{Points: -currentPoints, Tasks: -1}, nil
		case StatusPending:
			return LedgerDelta{Tasks: -1}, nil
		default:
			// Rejecting twice would double-decrement the task count.
			return LedgerDelta{}, ErrInvalidTransition
		}

	default:
		// PENDING is only ever entered by creation or resubmission.
		return LedgerDelta{}, ErrInvalidTransition
	}
}
