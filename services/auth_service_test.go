package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu     sync.Mutex
	emails []string
}

func (f *fireRecorder) fire(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
}

func (f *fireRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emails)
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestCleanupSchedulerFiresAfterDelay(t *testing.T) {
	rec := &fireRecorder{}
	c := newCleanupScheduler(rec.fire)
	defer c.Stop()

	c.Schedule("a@example.com", 20*time.Millisecond)

	require.True(t, waitFor(t, func() bool { return rec.count() == 1 }, 2*time.Second))
	assert.Equal(t, []string{"a@example.com"}, rec.emails)
}

func TestCleanupSchedulerCancelStopsTimer(t *testing.T) {
	rec := &fireRecorder{}
	c := newCleanupScheduler(rec.fire)
	defer c.Stop()

	c.Schedule("a@example.com", 30*time.Millisecond)
	c.Cancel("a@example.com")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestCleanupSchedulerRescheduleExtendsPendingTimer(t *testing.T) {
	rec := &fireRecorder{}
	c := newCleanupScheduler(rec.fire)
	defer c.Stop()

	// The second code's window replaces the first one's.
	c.Schedule("a@example.com", 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	c.Reschedule("a@example.com", 200*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "original deadline must no longer apply")

	require.True(t, waitFor(t, func() bool { return rec.count() == 1 }, 2*time.Second))
}

func TestCleanupSchedulerRescheduleIgnoresVerifiedEmail(t *testing.T) {
	rec := &fireRecorder{}
	c := newCleanupScheduler(rec.fire)
	defer c.Stop()

	// No pending timer (the address verified earlier): a re-request must not
	// arm cleanup for it.
	c.Reschedule("verified@example.com", 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
