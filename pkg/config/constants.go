package config

const (
	EnvPrefix = "MBG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "MBG_APP_ENV"
	EnvPort     = "MBG_APP_PORT"
	EnvDBDSN    = "MBG_DB_DSN"
	EnvDBHost   = "MBG_DB_HOST"
	EnvDBUser   = "MBG_DB_USER"
	EnvDBName   = "MBG_DB_NAME"
	EnvRedisURL = "MBG_REDIS_URL"

	EnvJWTSecret = "MBG_JWT_SECRET"
	EnvJWTIssuer = "MBG_JWT_ISSUER"

	EnvAdminEmails = "ADMIN_EMAILS"
	EnvAdminRoles  = "ADMIN_ROLES"

	EnvPayPalEnv = "PAYPAL_ENV"

	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// serviceTokenVars lists storefront token variables in lookup order.
var serviceTokenVars = []string{
	"STOREFRONT_SERVICE_TOKEN",
	"ADMIN_SERVICE_TOKEN",
	"MBG_STOREFRONT_SERVICE_TOKEN",
}
