package config

// EnvPrefix scopes every environment variable this service reads.
const EnvPrefix = "TINDAHAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TINDAHAN_DB_DSN"
	EnvDBHost = "TINDAHAN_DB_HOST"
	EnvDBUser = "TINDAHAN_DB_USER"
	EnvDBName = "TINDAHAN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
