package participant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("participant not found")

type Participant struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	College     *string   `json:"college"`
	Gender      *string   `json:"gender"`
	TotalPoints int       `json:"totalPoints"`
	TaskCount   int       `json:"taskCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stats is the slim shape pushed to realtime listeners after a review
// changes a participant's totals.
type Stats struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	TotalPoints int       `json:"totalPoints"`
	TaskCount   int       `json:"taskCount"`
}

// OTPRequest starts a passwordless login. Name and college are only
// required when the email has never been seen before.
type OTPRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	College string `json:"college,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r *VerifyOTPRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email format")
	}
	if len(r.OTP) != 6 {
		return fmt.Errorf("OTP must be 6 digits")
	}
	return nil
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	College *string `json:"college,omitempty"`
	Gender  *string `json:"gender,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		if *r.Name == "" || len(*r.Name) > 100 {
			return fmt.Errorf("name must be 1-100 characters")
		}
	}
	if r.College != nil {
		*r.College = strings.TrimSpace(*r.College)
		if *r.College == "" || len(*r.College) > 200 {
			return fmt.Errorf("college must be 1-200 characters")
		}
	}
	if r.Gender != nil && *r.Gender != "Male" && *r.Gender != "Female" {
		return fmt.Errorf("gender must be Male or Female")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address; all lookups and unique
// constraints operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
