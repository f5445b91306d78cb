package handler

import (
	"time"

	"github.com/DukeRupert/certum/internal/domain"
)

// JSON representations of domain entities returned by the API.

type jobInfoView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Title           string    `json:"title,omitempty"`
	ExperienceLevel string    `json:"experience_level"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toJobInfoView(j *domain.JobInfo) jobInfoView {
	return jobInfoView{
		ID:              j.ID.String(),
		Name:            j.Name,
		Title:           j.Title,
		ExperienceLevel: string(j.ExperienceLevel),
		Description:     j.Description,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

type interviewView struct {
	ID              string       `json:"id"`
	JobInfoID       string       `json:"job_info_id"`
	HumeChatID      string       `json:"hume_chat_id,omitempty"`
	DurationSeconds int64        `json:"duration_seconds"`
	Duration        string       `json:"duration"`
	Feedback        string       `json:"feedback,omitempty"`
	Completed       bool         `json:"completed"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	JobInfo         *jobInfoView `json:"job_info,omitempty"`
}

func toInterviewView(i *domain.Interview) interviewView {
	v := interviewView{
		ID:              i.ID.String(),
		JobInfoID:       i.JobInfoID.String(),
		HumeChatID:      i.HumeChatID,
		DurationSeconds: int64(i.Duration / time.Second),
		Duration:        i.FormattedDuration(),
		Feedback:        i.Feedback,
		Completed:       i.IsCompleted(),
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
	if i.JobInfo != nil {
		j := toJobInfoView(i.JobInfo)
		v.JobInfo = &j
	}
	return v
}

type questionView struct {
	ID         string    `json:"id"`
	JobInfoID  string    `json:"job_info_id"`
	Text       string    `json:"text"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toQuestionView(q *domain.Question) questionView {
	return questionView{
		ID:         q.ID.String(),
		JobInfoID:  q.JobInfoID.String(),
		Text:       q.Text,
		Difficulty: string(q.Difficulty),
		CreatedAt:  q.CreatedAt,
	}
}
