package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledger mirrors a participant row so transition sequences can be replayed
// without a database.
type ledger struct {
	totalPoints int
	taskCount   int
}

func (l *ledger) apply(d LedgerDelta) {
	l.totalPoints += d.Points
	l.taskCount += d.Tasks
}

func TestApproveFromPending(t *testing.T) {
	d, err := ReviewDelta(StatusPending, 0, StatusApproved, 50)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Points: 50}, d)
}

func TestApproveEditOnlyMovesDifference(t *testing.T) {
	// score corrected from 50 to 80 while still approved
	d, err := ReviewDelta(StatusApproved, 50, StatusApproved, 80)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Points: 30}, d)

	// and back down
	d, err = ReviewDelta(StatusApproved, 80, StatusApproved, 20)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Points: -60}, d)
}

func TestApproveRejectedIgnoresStalePoints(t *testing.T) {
	// A rejected submission can keep its old points value on the row, but
	// none of it is on the ledger, so approving again credits the full new
	// score, not a diff against the stale column.
	d, err := ReviewDelta(StatusRejected, 50, StatusApproved, 30)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Points: 30}, d)

	// Zero-point approval of a rejected submission moves nothing.
	d, err = ReviewDelta(StatusRejected, 50, StatusApproved, 0)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{}, d)
}

func TestRejectApprovedReversesPointsAndTask(t *testing.T) {
	d, err := ReviewDelta(StatusApproved, 50, StatusRejected, 0)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Points: -50, Tasks: -1}, d)
}

func TestRejectPendingOnlyDropsTask(t *testing.T) {
	d, err := ReviewDelta(StatusPending, 0, StatusRejected, 0)
	require.NoError(t, err)
	assert.Equal(t, LedgerDelta{Tasks: -1}, d)
}

func TestInvalidTransitions(t *testing.T) {
	_, err := ReviewDelta(StatusRejected, 0, StatusRejected, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = ReviewDelta(StatusPending, 0, StatusPending, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = ReviewDelta(StatusApproved, 50, StatusPending, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreateApproveRejectResubmitCycle(t *testing.T) {
	var l ledger

	// create
	l.apply(CreationDelta())
	assert.Equal(t, ledger{totalPoints: 0, taskCount: 1}, l)

	// approve with 50
	d, err := ReviewDelta(StatusPending, 0, StatusApproved, 50)
	require.NoError(t, err)
	l.apply(d)
	assert.Equal(t, ledger{totalPoints: 50, taskCount: 1}, l)

	// reject the approval
	d, err = ReviewDelta(StatusApproved, 50, StatusRejected, 0)
	require.NoError(t, err)
	l.apply(d)
	assert.Equal(t, ledger{totalPoints: 0, taskCount: 0}, l)

	// resubmit: indistinguishable from a fresh pending submission
	l.apply(CreationDelta())
	assert.Equal(t, ledger{totalPoints: 0, taskCount: 1}, l)
}

func TestLedgerConservation(t *testing.T) {
	// whatever the review history, the submission's net contribution is its
	// last approved score if currently approved, else zero
	var l ledger
	l.apply(CreationDelta())

	steps := []struct {
		from, to   Status
		fromPoints int
		toPoints   int
	}{
		{StatusPending, StatusApproved, 0, 40},
		{StatusApproved, StatusApproved, 40, 70},
		{StatusApproved, StatusRejected, 70, 0},
	}
	for _, s := range steps {
		d, err := ReviewDelta(s.from, s.fromPoints, s.to, s.toPoints)
		require.NoError(t, err)
		l.apply(d)
	}
	assert.Equal(t, ledger{totalPoints: 0, taskCount: 0}, l)

	// retry and settle on approval
	l.apply(CreationDelta())
	d, err := ReviewDelta(StatusPending, 0, StatusApproved, 25)
	require.NoError(t, err)
	l.apply(d)
	assert.Equal(t, ledger{totalPoints: 25, taskCount: 1}, l)
}

func TestReviewRequestValidate(t *testing.T) {
	pts := 10
	long := make([]byte, 501)
	note := string(long)

	require.NoError(t, (&ReviewRequest{Status: StatusApproved, Points: &pts}).Validate())
	require.NoError(t, (&ReviewRequest{Status: StatusRejected}).Validate())

	assert.Error(t, (&ReviewRequest{Status: StatusApproved}).Validate())
	assert.Error(t, (&ReviewRequest{Status: StatusPending}).Validate())
	assert.Error(t, (&ReviewRequest{Status: StatusRejected, Note: &note}).Validate())

	neg := -1
	assert.Error(t, (&ReviewRequest{Status: StatusApproved, Points: &neg}).Validate())
}
