package config

const (
	EnvPrefix = "DOMEO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "DOMEO_APP_ENV"
	EnvPort     = "DOMEO_APP_PORT"
	EnvLogLevel = "DOMEO_LOG_LEVEL"

	EnvDBDSN  = "DOMEO_DB_DSN"
	EnvDBHost = "DOMEO_DB_HOST"
	EnvDBUser = "DOMEO_DB_USER"
	EnvDBName = "DOMEO_DB_NAME"

	EnvRedisURL     = "DOMEO_REDIS_URL"
	EnvRedisEnabled = "DOMEO_REDIS_ENABLED"

	EnvCatalogBaseURL = "DOMEO_CATALOG_BASE_URL"

	EnvPricingCacheTTL = "DOMEO_PRICING_CACHE_TTL"
	EnvPricingTimeout  = "DOMEO_PRICING_TIMEOUT"

	EnvDedupEpsilon        = "DOMEO_DEDUP_EPSILON"
	EnvDedupCandidateLimit = "DOMEO_DEDUP_CANDIDATE_LIMIT"

	EnvUseSQLite = "DOMEO_USE_SQLITE"

	DefaultDedupEpsilon = "0.01"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
