package entitlements

// legacyFeature enumerates identifiers older clients still send. They predate
// the allow-lists and are answered from plan flags or plan identity.
type legacyFeature int

const (
	legacyUnknown legacyFeature = iota
	legacyFileUpload
	legacySSOLogin
	legacyWebhooks
	legacyModelSwitch
	legacyCompliance
	legacyCustomDomain
	legacyEnterpriseOnly
	legacyPaidOnly
	legacyTeamSeats
	legacyUnlimitedQueries
)

var legacyFeatureIDs = map[string]legacyFeature{
	"file_upload":       legacyFileUpload,
	"sso_login":         legacySSOLogin,
	"webhooks":          legacyWebhooks,
	"model_switch":      legacyModelSwitch,
	"compliance":        legacyCompliance,
	"custom_domain_v1":  legacyCustomDomain,
	"enterprise_only":   legacyEnterpriseOnly,
	"paid_only":         legacyPaidOnly,
	"team_seats":        legacyTeamSeats,
	"unlimited_queries": legacyUnlimitedQueries,
}

func parseLegacyFeature(id string) legacyFeature {
	if f, ok := legacyFeatureIDs[id]; ok {
		return f
	}
	return legacyUnknown
}

// allows evaluates the legacy rule. rawPlan is the caller's plan string before
// fallback resolution; identity checks compare against it.
func (f legacyFeature) allows(plan Plan, rawPlan string) bool {
	switch f {
	case legacyFileUpload:
		return plan.FileUploads
	case legacySSOLogin:
		return plan.SSO
	case legacyWebhooks:
		return plan.Webhooks
	case legacyModelSwitch:
		return plan.ModelSwitching
	case legacyCompliance:
		return plan.ComplianceTools
	case legacyCustomDomain:
		return plan.CustomDomain
	case legacyEnterpriseOnly:
		return rawPlan == string(PlanEnterprise)
	case legacyPaidOnly:
		return rawPlan == string(PlanPro) || rawPlan == string(PlanEnterprise)
	case legacyTeamSeats:
		return IsUnlimited(plan.TeamMemberLimit) || plan.TeamMemberLimit > 1
	case legacyUnlimitedQueries:
		return IsUnlimited(plan.QueryLimit)
	case legacyUnknown:
		return false
	default:
		return false
	}
}
