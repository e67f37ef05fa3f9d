package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/internal/participant"
	"questboardAPI/utils"
)

const (
	adminOTPTTL       = 10 * time.Minute
	participantOTPTTL = 5 * time.Minute
	sessionTokenTTL   = 7 * 24 * time.Hour
)

var (
	ErrAdminNotFound = errors.New("admin account not found")
	ErrInvalidOTP    = errors.New("invalid email or OTP")
	ErrOTPExpired    = errors.New("OTP has expired")
	// ErrRegistrationRequired is returned when a first-time participant
	// requests an OTP without the signup details.
	ErrRegistrationRequired = errors.New("name and college are required for new users")
)

type AdminAccount struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthService owns OTP issuance and verification for both principals, JWT
// session issuance, and the cleanup of registrations that never verified.
type AuthService struct {
	db      *pgxpool.Pool
	mailer  *EmailService
	secret  []byte
	cleanup *cleanupScheduler
}

func NewAuthService(db *pgxpool.Pool, mailer *EmailService, secret []byte) *AuthService {
	s := &AuthService{
		db:     db,
		mailer: mailer,
		secret: secret,
	}
	s.cleanup = newCleanupScheduler(s.deleteUnverified)
	return s
}

// Secret exposes the signing key for the auth middleware.
func (s *AuthService) Secret() []byte {
	return s.secret
}

// Stop cancels all pending unverified-registration timers.
func (s *AuthService) Stop() {
	s.cleanup.Stop()
}

// SeedAdmins upserts the preset admin allow-list at startup.
func (s *AuthService) SeedAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		email = participant.NormalizeEmail(email)
		if email == "" {
			continue
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO admins (id, email, created_at)
			VALUES (gen_random_uuid(), $1, NOW())
			ON CONFLICT (email) DO NOTHING
		`, email)
		if err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", email, err)
		}
	}
	return nil
}

func (s *AuthService) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`,
		participant.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin email: %w", err)
	}
	return exists, nil
}

func (s *AuthService) RequestAdminOTP(ctx context.Context, email string) error {
	email = participant.NormalizeEmail(email)

	var adminID string
	err := s.db.QueryRow(ctx, `SELECT id FROM admins WHERE email = $1`, email).Scan(&adminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(adminOTPTTL)

	_, err = s.db.Exec(ctx,
		`UPDATE admins SET otp = $1, otp_expiry = $2 WHERE email = $3`,
		otp, expiry, email,
	)
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	return s.mailer.SendAdminOTP(ctx, email, otp)
}

func (s *AuthService) VerifyAdminOTP(ctx context.Context, email, otp string) (string, *AdminAccount, error) {
	email = participant.NormalizeEmail(email)

	var admin AdminAccount
	var expiry *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT id, email, otp_expiry FROM admins WHERE email = $1 AND otp = $2`,
		email, otp,
	).Scan(&admin.ID, &admin.Email, &expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidOTP
		}
		return "", nil, fmt.Errorf("failed to look up admin otp: %w", err)
	}

	if utils.IsOTPExpired(expiry) {
		return "", nil, ErrOTPExpired
	}

	_, err = s.db.Exec(ctx,
		`UPDATE admins SET otp = NULL, otp_expiry = NULL WHERE id = $1`, admin.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to clear otp: %w", err)
	}

	token, err := utils.GenerateToken(s.secret, "adminId", admin.ID, admin.Email, sessionTokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &admin, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, adminID string) (*AdminAccount, error) {
	var admin AdminAccount
	err := s.db.QueryRow(ctx,
		`SELECT id, email FROM admins WHERE id = $1`, adminID,
	).Scan(&admin.ID, &admin.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

// RequestParticipantOTP creates the participant on first contact. A brand
// new registration that never verifies is deleted after the OTP expires.
func (s *AuthService) RequestParticipantOTP(ctx context.Context, req *participant.OTPRequest) (isNewUser bool, err error) {
	email := participant.NormalizeEmail(req.Email)

	var existingID string
	err = s.db.QueryRow(ctx, `SELECT id FROM participants WHERE email = $1`, email).Scan(&existingID)
	exists := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("failed to look up participant: %w", err)
	}

	if !exists {
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.College) == "" {
			return true, ErrRegistrationRequired
		}
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return !exists, err
	}
	expiry := time.Now().Add(participantOTPTTL)

	if exists {
		_, err = s.db.Exec(ctx,
			`UPDATE participants SET otp = $1, otp_expiry = $2, updated_at = NOW() WHERE email = $3`,
			otp, expiry, email,
		)
	} else {
		var gender *string
		if g := strings.TrimSpace(req.Gender); g != "" {
			gender = &g
		}
		_, err = s.db.Exec(ctx, `
			INSERT INTO participants (id, email, name, college, gender, otp, otp_expiry, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NOW(), NOW())
		`, email, strings.TrimSpace(req.Name), strings.TrimSpace(req.College), gender, otp, expiry)
	}
	if err != nil {
		return !exists, fmt.Errorf("failed to store participant otp: %w", err)
	}

	// Only registrations that never verified are removed when the code
	// lapses. A re-request before verifying pushes the deletion past the new
	// code's window; once verified (no timer) the row is kept no matter what.
	if exists {
		s.cleanup.Reschedule(email, participantOTPTTL)
	} else {
		s.cleanup.Schedule(email, participantOTPTTL)
	}

	if err := s.mailer.SendParticipantOTP(ctx, email, otp); err != nil {
		return !exists, err
	}
	return !exists, nil
}

func (s *AuthService) VerifyParticipantOTP(ctx context.Context, email, otp string) (string, *participant.Participant, error) {
	email = participant.NormalizeEmail(email)

	var p participant.Participant
	var expiry *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT id, email, name, college, gender, total_points, task_count, otp_expiry, created_at, updated_at
		FROM participants
		WHERE email = $1 AND otp = $2
	`, email, otp).Scan(
		&p.ID, &p.Email, &p.Name, &p.College, &p.Gender,
		&p.TotalPoints, &p.TaskCount, &expiry, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidOTP
		}
		return "", nil, fmt.Errorf("failed to look up participant otp: %w", err)
	}

	if utils.IsOTPExpired(expiry) {
		return "", nil, ErrOTPExpired
	}

	_, err = s.db.Exec(ctx,
		`UPDATE participants SET otp = NULL, otp_expiry = NULL WHERE id = $1`, p.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to clear otp: %w", err)
	}

	s.cleanup.Cancel(email)

	token, err := utils.GenerateToken(s.secret, "participantId", p.ID.String(), p.Email, sessionTokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &p, nil
}

func (s *AuthService) deleteUnverified(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx,
		`DELETE FROM participants WHERE email = $1 AND otp IS NOT NULL`, email)
	if err != nil {
		log.Printf("Error cleaning up unverified participant %s: %v", email, err)
		return
	}
	if tag.RowsAffected() > 0 {
		log.Printf("Deleted unverified participant: %s", email)
	}
}

// cleanupScheduler owns the timers that expire unverified registrations.
// One timer per email; a re-request resets it, a verify cancels it.
type cleanupScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   func(email string)
}

func newCleanupScheduler(fire func(string)) *cleanupScheduler {
	return &cleanupScheduler{
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

func (c *cleanupScheduler) Schedule(email string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduleLocked(email, d)
}

// Reschedule re-arms the timer only when one is already pending, so it never
// revives cleanup for an address that has verified.
func (c *cleanupScheduler) Reschedule(email string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.timers[email]; !ok {
		return
	}
	c.scheduleLocked(email, d)
}

func (c *cleanupScheduler) scheduleLocked(email string, d time.Duration) {
	if t, ok := c.timers[email]; ok {
		t.Stop()
	}
	c.timers[email] = time.AfterFunc(d, func() {
		c.fire(email)
		c.mu.Lock()
		delete(c.timers, email)
		c.mu.Unlock()
	})
}

func (c *cleanupScheduler) Cancel(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[email]; ok {
		t.Stop()
		delete(c.timers, email)
	}
}

func (c *cleanupScheduler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for email, t := range c.timers {
		t.Stop()
		delete(c.timers, email)
	}
}
