package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// UserTag covers a user record, including its demo counters and plan.
func UserTag(userID string) string {
	return "user:" + userID
}

// UserJobInfosTag covers the list of job infos owned by a user.
func UserJobInfosTag(userID string) string {
	return fmt.Sprintf("user:%s:job-infos", userID)
}

// JobInfoTag covers a single job info.
func JobInfoTag(id uuid.UUID) string {
	return "job-info:" + id.String()
}

// JobInfoInterviewsTag covers the interviews listed under a job info.
func JobInfoInterviewsTag(jobInfoID uuid.UUID) string {
	return fmt.Sprintf("job-info:%s:interviews", jobInfoID)
}

// JobInfoQuestionsTag covers the questions listed under a job info.
func JobInfoQuestionsTag(jobInfoID uuid.UUID) string {
	return fmt.Sprintf("job-info:%s:questions", jobInfoID)
}

// InterviewTag covers a single interview.
func InterviewTag(id uuid.UUID) string {
	return "interview:" + id.String()
}
