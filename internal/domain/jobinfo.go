package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExperienceLevel is the seniority a job posting targets.
type ExperienceLevel string

const (
	ExperienceLevelJunior ExperienceLevel = "junior"
	ExperienceLevelMid    ExperienceLevel = "mid-level"
	ExperienceLevelSenior ExperienceLevel = "senior"
)

// IsValid returns true if the level is a recognized value.
func (l ExperienceLevel) IsValid() bool {
	switch l {
	case ExperienceLevelJunior, ExperienceLevelMid, ExperienceLevelSenior:
		return true
	}
	return false
}

// JobInfo is a job posting a user is preparing for. Interviews and questions
// hang off it, and it is the unit of ownership for both.
type JobInfo struct {
	ID              uuid.UUID
	UserID          string
	Name            string
	Title           string
	ExperienceLevel ExperienceLevel
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether the job info belongs to userID.
func (j *JobInfo) OwnedBy(userID string) bool {
	return userID != "" && j.UserID == userID
}

// JobInfoParams contains the editable fields of a job info.
type JobInfoParams struct {
	Name            string
	Title           string
	ExperienceLevel ExperienceLevel
	Description     string
}

// Validate trims the fields in place and checks required values.
func (p *JobInfoParams) Validate() error {
	const op = "job_info.validate"

	p.Name = strings.TrimSpace(p.Name)
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	if p.Name == "" {
		return Invalid(op, "name is required")
	}
	if len(p.Name) > 255 {
		return Invalid(op, "name must be 255 characters or less")
	}
	if !p.ExperienceLevel.IsValid() {
		return Invalid(op, "experience level must be junior, mid-level or senior")
	}
	if p.Description == "" {
		return Invalid(op, "description is required")
	}
	return nil
}
