package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazvigil"

	VerifyAccessRoute     = "/v1/access/verify"
	RegisterIdentityRoute = "/v1/identities/register"

	AdminParent = "/v1/admin/"

	ListIdentitiesRoute = AdminParent + "identities"
	IdentityRoute       = AdminParent + "identities/{id}"
	IdentityTrustRoute  = AdminParent + "identities/{id}/trust"
	IdentityRiskRoute   = AdminParent + "identities/{id}/risk"

	ListPoliciesRoute = AdminParent + "policies"
	PolicyRoute       = AdminParent + "policies/{id}"

	ListSessionsRoute = AdminParent + "sessions"
	SessionRoute      = AdminParent + "sessions/{id}"

	ListAuditsRoute = AdminParent + "audits"
	ExplainRoute    = AdminParent + "explain"

	TaskParent       = AdminParent + "tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
