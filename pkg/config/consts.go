package config

const (
	EnvPrefix = "CONTAINERFLOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "CONTAINERFLOW_APP_ENV"
	EnvPort     = "CONTAINERFLOW_APP_PORT"
	EnvDBDSN    = "CONTAINERFLOW_DB_DSN"
	EnvDBHost   = "CONTAINERFLOW_DB_HOST"
	EnvDBUser   = "CONTAINERFLOW_DB_USER"
	EnvDBName   = "CONTAINERFLOW_DB_NAME"
	EnvRedisURL = "CONTAINERFLOW_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
