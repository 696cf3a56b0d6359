package config

const (
	EnvPrefix = "SHOPCONSOLE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SHOPCONSOLE_APP_ENV"
	EnvPort     = "SHOPCONSOLE_APP_PORT"
	EnvLogLevel = "SHOPCONSOLE_LOG_LEVEL"

	EnvDBDSN  = "SHOPCONSOLE_DB_DSN"
	EnvDBHost = "SHOPCONSOLE_DB_HOST"
	EnvDBUser = "SHOPCONSOLE_DB_USER"
	EnvDBName = "SHOPCONSOLE_DB_NAME"

	EnvRedisURL = "SHOPCONSOLE_REDIS_URL"

	EnvJWTSecret = "SHOPCONSOLE_JWT_SECRET"
	EnvJWTIssuer = "SHOPCONSOLE_JWT_ISSUER"

	EnvRazorpayKeyID         = "SHOPCONSOLE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "SHOPCONSOLE_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "SHOPCONSOLE_RAZORPAY_WEBHOOK_SECRET"

	EnvStorefrontOrigins = "SHOPCONSOLE_STOREFRONT_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
