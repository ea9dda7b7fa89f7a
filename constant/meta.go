// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Mediaroll is the canonical application identifier used for filesystem paths and CLI branding.
	Mediaroll = "mediaroll"

	// Version is the current application semantic version string.
	Version = "0.3.1"

	// UserAgent is the default HTTP User-Agent string sent to upstream aggregator APIs.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Referer is sent with full-body downloads and proxied stream requests.
	// Several video hosts refuse hotlinked requests without it.
	Referer = "https://api.tzjsy.cn/"
)

// Build metadata, overridden through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
