package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// EmailService sends OTP and review-result mail over SMTP. When SMTP_HOST is
// unset (local development, tests) it logs instead of sending.
type EmailService struct {
	client *mail.Client
	from   string
}

func NewEmailService() *EmailService {
	from := os.Getenv("SENDING_EMAIL")
	if from == "" {
		from = "no-reply@example.com"
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set, emails will be logged only")
		return &EmailService{from: from}
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		port = p
	}

	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(os.Getenv("SMTP_USER")),
		mail.WithPassword(os.Getenv("SMTP_PASS")),
	)
	if err != nil {
		log.Printf("Failed to create SMTP client, emails will be logged only: %v", err)
		return &EmailService{from: from}
	}

	return &EmailService{client: client, from: from}
}

func (s *EmailService) send(ctx context.Context, to, subject, html string) error {
	if s.client == nil {
		log.Printf("email (not sent): to=%s subject=%q", to, subject)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent successfully to %s", to)
	return nil
}

func (s *EmailService) SendAdminOTP(ctx context.Context, to, otp string) error {
	html := fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	  <h2 style="color: #333; text-align: center;">Admin Login OTP</h2>
	  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center; margin: 20px 0;">
	    <h1 style="color: #007bff; font-size: 2.5em; margin: 0; letter-spacing: 0.2em;">%s</h1>
	  </div>
	  <p style="color: #666; text-align: center;">This OTP will expire in 10 minutes.</p>
	  <p style="color: #666; text-align: center; font-size: 0.9em;">If you didn't request this OTP, please ignore this email.</p>
	</div>`, otp)

	return s.send(ctx, to, "Your Admin Login OTP", html)
}

func (s *EmailService) SendParticipantOTP(ctx context.Context, to, otp string) error {
	html := fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	  <h2 style="color: #333; text-align: center;">Your Login Code</h2>
	  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center; margin: 20px 0;">
	    <h1 style="color: #007bff; font-size: 2.5em; margin: 0; letter-spacing: 0.2em;">%s</h1>
	  </div>
	  <p style="color: #666; text-align: center;">This code will expire in 5 minutes.</p>
	</div>`, otp)

	return s.send(ctx, to, "Your Questboard Login Code", html)
}

func (s *EmailService) SendSubmissionApproved(ctx context.Context, to, name, taskName string, points int, note *string) error {
	noteBlock := ""
	if note != nil && *note != "" {
		noteBlock = fmt.Sprintf(`<p style="color: #666;">Reviewer note: %s</p>`, *note)
	}

	html := fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	  <h2 style="color: #28a745;">Submission Approved</h2>
	  <p>Hi %s,</p>
	  <p>Your submission for <strong>%s</strong> was approved and you earned <strong>%d points</strong>.</p>
	  %s
	  <p style="color: #666;">Keep going, the leaderboard is live!</p>
	</div>`, name, taskName, points, noteBlock)

	return s.send(ctx, to, "Submission approved: "+taskName, html)
}

func (s *EmailService) SendSubmissionRejected(ctx context.Context, to, name, taskName string, note *string) error {
	noteBlock := ""
	if note != nil && *note != "" {
		noteBlock = fmt.Sprintf(`<p style="color: #666;">Reviewer note: %s</p>`, *note)
	}

	html := fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	  <h2 style="color: #dc3545;">Submission Rejected</h2>
	  <p>Hi %s,</p>
	  <p>Your submission for <strong>%s</strong> was not approved this time.</p>
	  %s
	  <p style="color: #666;">You can resubmit for this task at any point.</p>
	</div>`, name, taskName, noteBlock)

	return s.send(ctx, to, "Submission update: "+taskName, html)
}
