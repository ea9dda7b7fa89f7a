// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// HTTP Server - these keys configure the listener that exposes the API and the stream endpoint.
const (
	ServerHost       = "server.host"
	ServerPort       = "server.port"
	ServerCORSOrigin = "server.cors_origin"
)

// Upstream Networking - these keys tune the clients that talk to aggregator endpoints.
const (
	NetworkUserAgent              = "network.user_agent"
	NetworkReferer                = "network.referer"
	NetworkTimeout                = "network.timeout"
	NetworkConnectTimeout         = "network.connect_timeout"
	NetworkDownloadTimeout        = "network.download_timeout"
	NetworkDownloadConnectTimeout = "network.download_connect_timeout"
	NetworkFingerprint            = "network.fingerprint"
	NetworkInsecureTLS            = "network.insecure_tls"
)

// Payload Limits - maximum accepted body sizes, in megabytes.
const (
	LimitsVideoMB = "limits.video_mb"
	LimitsImageMB = "limits.image_mb"
)

// Preloading
const (
	PreloadCapacity = "preload.capacity"
	PreloadOnPop    = "preload.on_pop"
)

// Downloads
const (
	DownloadsRetentionDays = "downloads.retention_days"
)

// Observability - these keys toggle the metrics endpoint and the websocket event feed.
const (
	MetricsEnable = "metrics.enable"
	EventsEnable  = "events.enable"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Media Playback
const (
	Player = "player.default"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-server application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
