// Package domain contains core business types and interfaces.
//
// This file defines the quota-gated resources, the billing permission keys
// that unlock them and the demo-mode limits used when billing is simulated.
package domain

// Resource identifies a quota-gated action.
type Resource string

const (
	ResourceInterview Resource = "interview"
	ResourceQuestion  Resource = "question"
	ResourceResume    Resource = "resume"
)

// Resources lists every gated resource in display order.
var Resources = []Resource{ResourceInterview, ResourceQuestion, ResourceResume}

func (r Resource) String() string {
	return string(r)
}

// IsValid returns true if the resource is a recognized value.
func (r Resource) IsValid() bool {
	switch r {
	case ResourceInterview, ResourceQuestion, ResourceResume:
		return true
	}
	return false
}

// =============================================================================
// Billing permission keys
// =============================================================================

// Permission is a feature key granted by a billing plan.
type Permission string

const (
	PermissionUnlimitedInterviews     Permission = "unlimited_interviews"
	PermissionOneInterview            Permission = "1_interview"
	PermissionUnlimitedQuestions      Permission = "unlimited_questions"
	PermissionFiveQuestions           Permission = "5_questions"
	PermissionUnlimitedResumeAnalysis Permission = "unlimited_resume_analysis"
)

// MeteredGrant pairs a metered permission with the number of uses it covers.
type MeteredGrant struct {
	Permission Permission
	Limit      int64
}

// ResourcePermissions describes how a plan can unlock a resource: either an
// unlimited grant, or a metered grant compared against lifetime usage.
type ResourcePermissions struct {
	Unlimited Permission
	Metered   *MeteredGrant
}

// PermissionsFor returns the permission keys consulted for a resource.
// Resume analysis has no metered tier.
func PermissionsFor(r Resource) ResourcePermissions {
	switch r {
	case ResourceInterview:
		return ResourcePermissions{
			Unlimited: PermissionUnlimitedInterviews,
			Metered:   &MeteredGrant{Permission: PermissionOneInterview, Limit: 1},
		}
	case ResourceQuestion:
		return ResourcePermissions{
			Unlimited: PermissionUnlimitedQuestions,
			Metered:   &MeteredGrant{Permission: PermissionFiveQuestions, Limit: 5},
		}
	case ResourceResume:
		return ResourcePermissions{Unlimited: PermissionUnlimitedResumeAnalysis}
	}
	return ResourcePermissions{}
}

// TierPermissions maps subscription tiers to the permission keys they grant.
var TierPermissions = map[SubscriptionTier][]Permission{
	SubscriptionTierFree: {
		PermissionOneInterview,
		PermissionFiveQuestions,
	},
	SubscriptionTierStarter: {
		PermissionUnlimitedInterviews,
		PermissionUnlimitedQuestions,
	},
	SubscriptionTierProfessional: {
		PermissionUnlimitedInterviews,
		PermissionUnlimitedQuestions,
		PermissionUnlimitedResumeAnalysis,
	},
}

// TierGrants reports whether a tier grants a permission. Unknown tiers are
// treated as free.
func TierGrants(tier SubscriptionTier, p Permission) bool {
	perms, ok := TierPermissions[tier]
	if !ok {
		perms = TierPermissions[SubscriptionTierFree]
	}
	for _, granted := range perms {
		if granted == p {
			return true
		}
	}
	return false
}

// =============================================================================
// Demo mode
// =============================================================================

// Default demo limits, overridable through configuration.
const (
	DefaultDemoInterviewLimit = 2
	DefaultDemoQuestionLimit  = 5
	DefaultDemoResumeLimit    = 1
)

// DemoLimits holds the per-resource caps applied in demo mode.
type DemoLimits struct {
	Interviews int
	Questions  int
	Resumes    int
}

// DefaultDemoLimits returns the stock demo limits.
func DefaultDemoLimits() DemoLimits {
	return DemoLimits{
		Interviews: DefaultDemoInterviewLimit,
		Questions:  DefaultDemoQuestionLimit,
		Resumes:    DefaultDemoResumeLimit,
	}
}

// For returns the limit for a resource.
func (l DemoLimits) For(r Resource) int {
	switch r {
	case ResourceInterview:
		return l.Interviews
	case ResourceQuestion:
		return l.Questions
	case ResourceResume:
		return l.Resumes
	}
	return 0
}

// DemoUsage is a snapshot of a user's demo counters. A missing user reads as
// the zero value.
type DemoUsage struct {
	InterviewsUsed int
	QuestionsUsed  int
	ResumesUsed    int
}

// For returns the counter for a resource.
func (u DemoUsage) For(r Resource) int {
	switch r {
	case ResourceInterview:
		return u.InterviewsUsed
	case ResourceQuestion:
		return u.QuestionsUsed
	case ResourceResume:
		return u.ResumesUsed
	}
	return 0
}

// Allows reports whether one more use of r fits under the limit.
func (u DemoUsage) Allows(r Resource, limits DemoLimits) bool {
	return u.For(r) < limits.For(r)
}

// ResourceUsage is one row of a usage summary.
type ResourceUsage struct {
	Resource  Resource `json:"resource"`
	Used      int      `json:"used"`
	Limit     int      `json:"limit"`
	Remaining int      `json:"remaining"`
}

// UsageSummary is the demo usage overview shown to a user.
type UsageSummary struct {
	DemoMode  bool            `json:"demo_mode"`
	Resources []ResourceUsage `json:"resources"`
}

// Summarize builds a usage summary. Remaining never goes below zero.
func Summarize(usage DemoUsage, limits DemoLimits, demoMode bool) UsageSummary {
	summary := UsageSummary{DemoMode: demoMode}
	for _, r := range Resources {
		used, limit := usage.For(r), limits.For(r)
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		summary.Resources = append(summary.Resources, ResourceUsage{
			Resource:  r,
			Used:      used,
			Limit:     limit,
			Remaining: remaining,
		})
	}
	return summary
}
