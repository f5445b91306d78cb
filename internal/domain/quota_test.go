package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierGrants(t *testing.T) {
	tests := []struct {
		name string
		tier SubscriptionTier
		perm Permission
		want bool
	}{
		{"free has one interview", SubscriptionTierFree, PermissionOneInterview, true},
		{"free has five questions", SubscriptionTierFree, PermissionFiveQuestions, true},
		{"free lacks unlimited interviews", SubscriptionTierFree, PermissionUnlimitedInterviews, false},
		{"free lacks resume analysis", SubscriptionTierFree, PermissionUnlimitedResumeAnalysis, false},
		{"starter has unlimited interviews", SubscriptionTierStarter, PermissionUnlimitedInterviews, true},
		{"starter has unlimited questions", SubscriptionTierStarter, PermissionUnlimitedQuestions, true},
		{"starter lacks resume analysis", SubscriptionTierStarter, PermissionUnlimitedResumeAnalysis, false},
		{"professional has resume analysis", SubscriptionTierProfessional, PermissionUnlimitedResumeAnalysis, true},
		{"unknown tier treated as free", SubscriptionTier("enterprise"), PermissionOneInterview, true},
		{"unknown tier lacks unlimited", SubscriptionTier("enterprise"), PermissionUnlimitedQuestions, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierGrants(tt.tier, tt.perm))
		})
	}
}

func TestPermissionsFor(t *testing.T) {
	interview := PermissionsFor(ResourceInterview)
	assert.Equal(t, PermissionUnlimitedInterviews, interview.Unlimited)
	if assert.NotNil(t, interview.Metered) {
		assert.Equal(t, PermissionOneInterview, interview.Metered.Permission)
		assert.Equal(t, int64(1), interview.Metered.Limit)
	}

	question := PermissionsFor(ResourceQuestion)
	assert.Equal(t, PermissionUnlimitedQuestions, question.Unlimited)
	if assert.NotNil(t, question.Metered) {
		assert.Equal(t, PermissionFiveQuestions, question.Metered.Permission)
		assert.Equal(t, int64(5), question.Metered.Limit)
	}

	resume := PermissionsFor(ResourceResume)
	assert.Equal(t, PermissionUnlimitedResumeAnalysis, resume.Unlimited)
	assert.Nil(t, resume.Metered)
}

func TestDemoUsage_Allows(t *testing.T) {
	limits := DefaultDemoLimits()

	tests := []struct {
		name     string
		usage    DemoUsage
		resource Resource
		want     bool
	}{
		{"no interviews used", DemoUsage{}, ResourceInterview, true},
		{"one of two interviews", DemoUsage{InterviewsUsed: 1}, ResourceInterview, true},
		{"interview limit reached", DemoUsage{InterviewsUsed: 2}, ResourceInterview, false},
		{"interview limit exceeded", DemoUsage{InterviewsUsed: 3}, ResourceInterview, false},
		{"four of five questions", DemoUsage{QuestionsUsed: 4}, ResourceQuestion, true},
		{"question limit reached", DemoUsage{QuestionsUsed: 5}, ResourceQuestion, false},
		{"no resumes used", DemoUsage{}, ResourceResume, true},
		{"resume limit reached", DemoUsage{ResumesUsed: 1}, ResourceResume, false},
		{"other counters ignored", DemoUsage{QuestionsUsed: 99, ResumesUsed: 99}, ResourceInterview, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usage.Allows(tt.resource, limits))
		})
	}
}

func TestDemoLimits_ZeroDeniesEverything(t *testing.T) {
	var limits DemoLimits
	for _, r := range Resources {
		assert.False(t, DemoUsage{}.Allows(r, limits), r.String())
	}
}

func TestSummarize(t *testing.T) {
	usage := DemoUsage{InterviewsUsed: 1, QuestionsUsed: 7, ResumesUsed: 0}
	summary := Summarize(usage, DefaultDemoLimits(), true)

	assert.True(t, summary.DemoMode)
	assert.Equal(t, []ResourceUsage{
		{Resource: ResourceInterview, Used: 1, Limit: 2, Remaining: 1},
		{Resource: ResourceQuestion, Used: 7, Limit: 5, Remaining: 0},
		{Resource: ResourceResume, Used: 0, Limit: 1, Remaining: 1},
	}, summary.Resources)
}

func TestResource_IsValid(t *testing.T) {
	for _, r := range Resources {
		assert.True(t, r.IsValid())
	}
	assert.False(t, Resource("report").IsValid())
}
