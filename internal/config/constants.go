package config

// Constants defining default values for application configuration
const (
	DefaultFeedsPath  = "scripts/layoff_feeds.txt"
	DefaultOutputPath = "data/layoff_news.json"
	DefaultLogDir     = "logs"
	DefaultDBPath     = "" // Empty string disables the event archive

	DefaultMaxItems = 100
	DefaultRegion   = "JP"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultRetentionDays = 0 // 0 keeps archived events forever

	DefaultLogLevel = "info"
)

// Environment variable names.
const (
	EnvRulesPath      = "LAYOFFWATCH_RULES_PATH"
	EnvDBPath         = "LAYOFFWATCH_DB_PATH"
	EnvMetricsPath    = "LAYOFFWATCH_METRICS_PATH"
	EnvRemoteFeedsURL = "LAYOFFWATCH_REMOTE_FEEDS_URL"
	EnvRetentionDays  = "LAYOFFWATCH_RETENTION_DAYS"
	EnvUserAgent      = "LAYOFFWATCH_USER_AGENT"
	EnvLogLevel       = "LAYOFFWATCH_LOG_LEVEL"
	EnvConsole        = "LAYOFFWATCH_CONSOLE"
	EnvAPIKey         = "LAYOFFWATCH_API_KEY"
	EnvHost           = "LAYOFFWATCH_HOST"
	EnvPort           = "LAYOFFWATCH_PORT"
	EnvWebhookURL     = "SLACK_WEBHOOK_URL"
)
