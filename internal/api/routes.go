package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	LoginRoute  = "/v1/auth/login"
	WhoamiRoute = "/v1/auth/whoami"

	ListAuditsRoute = "/v1/admin/audits"
)
