package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxResumeSize is the largest resume accepted for analysis (10 MiB).
const MaxResumeSize int64 = 10 << 20

// AllowedResumeTypes defines the MIME types accepted for resume analysis.
var AllowedResumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// IsAllowedResumeType checks a content type, ignoring parameters such as
// charset.
func IsAllowedResumeType(contentType string) bool {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	return AllowedResumeTypes[baseType]
}

// ResumeUpload is a resume file submitted for analysis against a job info.
type ResumeUpload struct {
	JobInfoID   uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Validate checks presence, type and size. It runs before any permission
// lookup or external call.
func (r *ResumeUpload) Validate() error {
	const op = "resume.validate"

	if r.JobInfoID == uuid.Nil {
		return Invalid(op, "job info id is required")
	}
	if r.Size <= 0 || len(r.Data) == 0 {
		return Invalid(op, "resume file is required")
	}
	if r.Size > MaxResumeSize || int64(len(r.Data)) > MaxResumeSize {
		return TooLarge(op, fmt.Sprintf("resume must be %d MiB or smaller", MaxResumeSize>>20))
	}
	if !IsAllowedResumeType(r.ContentType) {
		return Invalid(op, "resume must be a PDF, Word document or plain text file")
	}
	return nil
}
