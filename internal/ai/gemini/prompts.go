package gemini

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/certum/internal/ai"
)

const resumeSystemPrompt = `You are an experienced technical recruiter reviewing a candidate's resume for a specific job.

Assess the resume in these areas:
1. **ATS compatibility** - parseable structure, standard headings, keyword coverage
2. **Job match** - how closely the experience maps to the description
3. **Writing and formatting** - clarity, consistency, concision
4. **Keyword coverage** - important terms from the description that are missing
5. **Other** - anything else a hiring manager would notice

For each area give a score from 1 to 10, a one-sentence summary and concrete suggestions.
Respond in Markdown. Speak directly to the candidate.`

const feedbackSystemPrompt = `You are an expert interview coach reviewing the transcript of a mock job interview.

The transcript lists each message with the speaker and, for the candidate, the strongest emotions detected in their voice.

Evaluate the candidate on:
- Communication clarity
- Confidence and emotional state
- Response quality and relevance to the role
- Pacing and timing
- Engagement with the interviewer
- Role fit and alignment

Give an overall rating out of 10, then a section per category with specific examples from the transcript.
Respond in Markdown. Address the candidate by name.`

const questionSystemPrompt = `You are an interviewer writing one practice question for a candidate.

Return only the question text, without numbering, headings or an answer.
Do not repeat any of the previous questions.`

// buildJobContext renders the job details shared by every prompt.
func buildJobContext(job ai.JobContext) string {
	var b strings.Builder
	b.WriteString("**Job Details:**\n")
	if job.Title != "" {
		fmt.Fprintf(&b, "- Title: %s\n", job.Title)
	}
	if job.ExperienceLevel != "" {
		fmt.Fprintf(&b, "- Experience level: %s\n", job.ExperienceLevel)
	}
	fmt.Fprintf(&b, "- Description:\n%s\n", job.Description)
	return b.String()
}

func buildResumePrompt(req ai.ResumeRequest) string {
	return buildJobContext(req.Job) + "\nThe candidate's resume is attached. Review it against the job above."
}

func buildFeedbackPrompt(req ai.FeedbackRequest) string {
	var b strings.Builder
	b.WriteString(buildJobContext(req.Job))

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "the candidate"
	}
	fmt.Fprintf(&b, "\nCandidate name: %s\n\n**Transcript:**\n", name)

	for _, m := range req.Transcript {
		speaker := "Interviewer"
		if m.Speaker == ai.SpeakerUser {
			speaker = "Candidate"
		}
		fmt.Fprintf(&b, "%s: %s", speaker, m.Text)
		if len(m.Emotions) > 0 {
			fmt.Fprintf(&b, " [emotions: %s]", strings.Join(m.Emotions, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildQuestionPrompt(req ai.QuestionRequest) string {
	var b strings.Builder
	b.WriteString(buildJobContext(req.Job))
	fmt.Fprintf(&b, "\nDifficulty: %s\n", req.Difficulty)

	if len(req.Previous) > 0 {
		b.WriteString("\n**Previous questions:**\n")
		for _, q := range req.Previous {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}
