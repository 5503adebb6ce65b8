package entitlements

import (
	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanStarter    PlanID = "starter"
	PlanPro        PlanID = "pro"
	PlanEnterprise PlanID = "enterprise"
)

// BillingInterval is the cadence a plan is charged at.
type BillingInterval string

const (
	BillingMonthly BillingInterval = "month"
	BillingYearly  BillingInterval = "year"
)

// Unlimited is the sentinel used by QueryLimit and TeamMemberLimit.
const Unlimited = -1

// Plan describes what a subscription tier costs and unlocks.
type Plan struct {
	ID              PlanID
	Name            string
	PriceAmount     decimal.Decimal
	PriceCurrency   string
	BillingInterval BillingInterval
	TrialLengthDays int // 0 when the plan has no trial
	QueryLimit      int
	TeamMemberLimit int
	AllowedFeatures map[string]struct{}

	FileUploads     bool
	SSO             bool
	Webhooks        bool
	ModelSwitching  bool
	ComplianceTools bool
	CustomDomain    bool
}

// HasTrial reports whether signing up for the plan starts a trial.
func (p Plan) HasTrial() bool {
	return p.TrialLengthDays > 0
}

// Allows reports allow-list membership only.
func (p Plan) Allows(feature string) bool {
	_, ok := p.AllowedFeatures[feature]
	return ok
}

// Features returns the allow-list sorted by name.
func (p Plan) Features() []string {
	return sortedKeys(p.AllowedFeatures)
}

// IsUnlimited reports whether a limit value means no limit.
func IsUnlimited(limit int) bool {
	return limit < 0
}

func featureSet(features ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		set[f] = struct{}{}
	}
	return set
}

func (p Plan) clone() Plan {
	out := p
	out.AllowedFeatures = make(map[string]struct{}, len(p.AllowedFeatures))
	for f := range p.AllowedFeatures {
		out.AllowedFeatures[f] = struct{}{}
	}
	return out
}

// Feature identifiers used by the product.
const (
	FeatureAIResponses        = "ai_responses"
	FeatureBasicTemplates     = "basic_templates"
	FeatureEmailIntegration   = "email_integration"
	FeatureResponseHistory    = "response_history"
	FeatureCustomTemplates    = "custom_templates"
	FeatureAnalyticsDashboard = "analytics_dashboard"
	FeatureFileUploads        = "file_uploads"
	FeatureModelSwitching     = "model_switching"
	FeatureToneCustomization  = "tone_customization"
	FeatureBulkResponses      = "bulk_responses"
	FeaturePrioritySupport    = "priority_support"
	FeatureTeamCollaboration  = "team_collaboration"
	FeatureAPIAccess          = "api_access"
	FeatureSSO                = "sso"
	FeatureComplianceTools    = "compliance_tools"
	FeatureCustomDomain       = "custom_domain"
	FeatureAuditLogs          = "audit_logs"
	FeatureWhiteLabel         = "white_label"
	FeatureDedicatedSupport   = "dedicated_support"
)

var (
	starterFeatures = []string{
		FeatureAIResponses,
		FeatureBasicTemplates,
		FeatureEmailIntegration,
		FeatureResponseHistory,
	}
	proFeatures = append(append([]string{}, starterFeatures...),
		FeatureCustomTemplates,
		FeatureAnalyticsDashboard,
		FeatureFileUploads,
		FeatureModelSwitching,
		FeatureToneCustomization,
		FeatureBulkResponses,
		FeaturePrioritySupport,
		FeatureTeamCollaboration,
	)
	enterpriseFeatures = append(append([]string{}, proFeatures...),
		FeatureAPIAccess,
		FeatureSSO,
		FeatureComplianceTools,
		FeatureCustomDomain,
		FeatureAuditLogs,
		FeatureWhiteLabel,
		FeatureDedicatedSupport,
	)
)

func defaultPlans() []Plan {
	return []Plan{
		{
			ID:              PlanStarter,
			Name:            "Starter",
			PriceAmount:     decimal.RequireFromString("19.00"),
			PriceCurrency:   "USD",
			BillingInterval: BillingMonthly,
			TrialLengthDays: 14,
			QueryLimit:      100,
			TeamMemberLimit: 1,
			AllowedFeatures: featureSet(starterFeatures...),
		},
		{
			ID:              PlanPro,
			Name:            "Pro",
			PriceAmount:     decimal.RequireFromString("49.00"),
			PriceCurrency:   "USD",
			BillingInterval: BillingMonthly,
			QueryLimit:      1000,
			TeamMemberLimit: 5,
			AllowedFeatures: featureSet(proFeatures...),
			FileUploads:     true,
			Webhooks:        true,
			ModelSwitching:  true,
		},
		{
			ID:              PlanEnterprise,
			Name:            "Enterprise",
			PriceAmount:     decimal.RequireFromString("199.00"),
			PriceCurrency:   "USD",
			BillingInterval: BillingMonthly,
			QueryLimit:      Unlimited,
			TeamMemberLimit: Unlimited,
			AllowedFeatures: featureSet(enterpriseFeatures...),
			FileUploads:     true,
			SSO:             true,
			Webhooks:        true,
			ModelSwitching:  true,
			ComplianceTools: true,
			CustomDomain:    true,
		},
	}
}

// defaultOverrides holds features whose access does not follow allow-list
// membership. Most keys are legacy or renamed identifiers still sent by older clients.
func defaultOverrides() map[string]map[PlanID]bool {
	return map[string]map[PlanID]bool{
		// renamed to analytics_dashboard
		"analytics": {
			PlanPro:        true,
			PlanEnterprise: true,
		},
		"advanced_analytics": {
			PlanEnterprise: true,
		},
		// pro keeps the API access granted before it moved to enterprise
		FeatureAPIAccess: {
			PlanPro:        true,
			PlanEnterprise: true,
		},
		"email_drafts": {
			PlanStarter:    true,
			PlanPro:        true,
			PlanEnterprise: true,
		},
		"custom_branding": {
			PlanEnterprise: true,
		},
	}
}
