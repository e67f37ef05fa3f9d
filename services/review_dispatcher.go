package services

import (
	"context"
	"log"
	"sync"
	"time"

	"questboardAPI/internal/notification"
	"questboardAPI/internal/submission"
	"questboardAPI/internal/ws"
	"questboardAPI/middleware"
)

// PushProvider delivers a push notification to registered devices.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

type dispatchJob struct {
	sub      *submission.WithParticipant
	reviewed bool
}

// ReviewDispatcher fans submission events out to realtime listeners, email,
// and push. It is fire-and-forget: the HTTP response never waits on it and
// a failed delivery is logged, not retried; the next mutation re-sends the
// standings anyway.
type ReviewDispatcher struct {
	leaderboards *LeaderboardService
	participants *ParticipantService
	mailer       *EmailService
	hub          *ws.Hub
	push         PushProvider

	workers  int
	jobQueue chan dispatchJob
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReviewDispatcher(leaderboards *LeaderboardService, participants *ParticipantService, mailer *EmailService, hub *ws.Hub) *ReviewDispatcher {
	d := &ReviewDispatcher{
		leaderboards: leaderboards,
		participants: participants,
		mailer:       mailer,
		hub:          hub,
		workers:      4,
		jobQueue:     make(chan dispatchJob, 100),
		stopChan:     make(chan struct{}),
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// SetPushProvider injects the FCM client from main.go. Optional.
func (d *ReviewDispatcher) SetPushProvider(p PushProvider) {
	d.push = p
}

func (d *ReviewDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}

// SubmissionCreated announces a new or resubmitted submission to listeners.
func (d *ReviewDispatcher) SubmissionCreated(sub *submission.WithParticipant) {
	d.enqueue(dispatchJob{sub: sub})
}

// SubmissionReviewed pushes the refreshed standings, the participant's new
// totals, and the decision itself to every channel.
func (d *ReviewDispatcher) SubmissionReviewed(sub *submission.WithParticipant) {
	d.enqueue(dispatchJob{sub: sub, reviewed: true})
}

func (d *ReviewDispatcher) enqueue(job dispatchJob) {
	select {
	case d.jobQueue <- job:
	default:
		log.Printf("dispatcher: queue full, dropping event for submission %s", job.sub.ID)
	}
}

func (d *ReviewDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.process(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *ReviewDispatcher) process(job dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !job.reviewed {
		d.hub.Broadcast(ws.Message{Type: ws.TypeSubmissionNew, Data: job.sub})
		return
	}

	middleware.SubmissionReviews.WithLabelValues(string(job.sub.Status)).Inc()

	// Standings snapshot for everyone watching the board.
	snapshot, err := d.leaderboards.Snapshot(ctx)
	if err != nil {
		log.Printf("dispatcher: failed to load leaderboard snapshot: %v", err)
	} else {
		d.hub.Broadcast(ws.Message{Type: ws.TypeLeaderboardUpdate, Data: snapshot})
		middleware.LeaderboardBroadcasts.Inc()
	}

	// Fresh totals for the affected participant.
	stats, err := d.participants.GetStats(ctx, job.sub.ParticipantID)
	if err != nil {
		log.Printf("dispatcher: failed to load participant stats: %v", err)
	} else {
		d.hub.Broadcast(ws.Message{Type: ws.TypeUserStatsUpdate, Data: stats})
	}

	d.notifyParticipant(ctx, job.sub)
}

func (d *ReviewDispatcher) notifyParticipant(ctx context.Context, sub *submission.WithParticipant) {
	var err error
	switch sub.Status {
	case submission.StatusApproved:
		points := 0
		if sub.Points != nil {
			points = *sub.Points
		}
		err = d.mailer.SendSubmissionApproved(ctx, sub.Participant.Email, sub.Participant.Name, sub.TaskName, points, sub.Note)
	case submission.StatusRejected:
		err = d.mailer.SendSubmissionRejected(ctx, sub.Participant.Email, sub.Participant.Name, sub.TaskName, sub.Note)
	default:
		return
	}
	if err != nil {
		log.Printf("dispatcher: review email failed for %s: %v", sub.Participant.Email, err)
	}

	if d.push == nil {
		return
	}
	tokens, err := d.participants.DeviceTokens(ctx, sub.ParticipantID)
	if err != nil {
		log.Printf("dispatcher: failed to load device tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "Submission reviewed"
	body := "Your submission for " + sub.TaskName + " was rejected."
	if sub.Status == submission.StatusApproved {
		body = "Your submission for " + sub.TaskName + " was approved!"
	}
	data := map[string]string{
		"submissionId": sub.ID.String(),
		"status":       string(sub.Status),
	}
	if err := d.push.SendPush(ctx, tokens, title, body, data); err != nil {
		log.Printf("dispatcher: push failed for %s: %v", sub.Participant.Email, err)
	}
}
