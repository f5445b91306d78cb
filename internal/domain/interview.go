// Package domain contains core business types and interfaces.
//
// This file defines the Interview domain type and the rules for how a live
// voice session may update it.
package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Interview is a single mock interview against a job info.
//
// Lifecycle:
//   - created empty with a zero duration
//   - duration updated repeatedly while the call is live
//   - HumeChatID set once when the voice session starts
//   - Feedback generated once after the call closes
//
// Once feedback exists the interview is immutable.
type Interview struct {
	ID         uuid.UUID
	JobInfoID  uuid.UUID
	HumeChatID string
	Duration   time.Duration
	Feedback   string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// JobInfo is the parent, loaded for ownership checks.
	JobInfo *JobInfo
}

// IsCompleted returns true once a voice session has been attached.
func (i *Interview) IsCompleted() bool {
	return i.HumeChatID != ""
}

// HasFeedback returns true once feedback has been generated.
func (i *Interview) HasFeedback() bool {
	return i.Feedback != ""
}

// FormattedDuration renders the duration as HH:MM:SS.
func (i *Interview) FormattedDuration() string {
	total := int(i.Duration / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// UpdateInterviewParams holds the fields a live session may report. Nil
// fields are left untouched.
type UpdateInterviewParams struct {
	HumeChatID *string
	Duration   *time.Duration
}

// MaxInterviewDuration is the longest duration the interviews table can store
// in its integer seconds column.
const MaxInterviewDuration = math.MaxInt32 * time.Second

// Apply validates the update against the interview's state and returns the
// resulting values. The receiver is not modified.
func (i *Interview) Apply(p UpdateInterviewParams) (chatID string, duration time.Duration, err error) {
	const op = "interview.apply"

	chatID, duration = i.HumeChatID, i.Duration

	if i.HasFeedback() {
		return chatID, duration, Invalid(op, "interview already has feedback and can no longer change")
	}

	if p.Duration != nil {
		if *p.Duration < 0 {
			return chatID, duration, Invalid(op, "duration cannot be negative")
		}
		if *p.Duration > MaxInterviewDuration {
			return chatID, duration, Invalid(op, "duration is too long")
		}
		duration = p.Duration.Truncate(time.Second)
	}

	if p.HumeChatID != nil {
		if *p.HumeChatID == "" {
			return chatID, duration, Invalid(op, "call id cannot be empty")
		}
		if i.HumeChatID != "" && i.HumeChatID != *p.HumeChatID {
			return chatID, duration, Invalid(op, "call id is already set")
		}
		chatID = *p.HumeChatID
	}

	return chatID, duration, nil
}
