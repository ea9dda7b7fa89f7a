// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/mediaroll/mediaroll/color"
	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Mediaroll + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerHost, "127.0.0.1", "Address the HTTP server binds to")
	register(key.ServerPort, 7878, "Port the HTTP server listens on")
	register(key.ServerCORSOrigin, "*", "Value of the Access-Control-Allow-Origin header.\nLeave empty to disable CORS headers")
	register(key.NetworkUserAgent, constant.UserAgent, "User-Agent sent to upstream endpoints")
	register(key.NetworkReferer, constant.Referer, "Referer sent with downloads and proxied stream requests")
	register(key.NetworkTimeout, 30, "Total timeout for endpoint resolution, in seconds")
	register(key.NetworkConnectTimeout, 10, "Connect timeout for endpoint resolution, in seconds")
	register(key.NetworkDownloadTimeout, 60, "Total timeout for full-body downloads, in seconds")
	register(key.NetworkDownloadConnectTimeout, 15, "Connect timeout for full-body downloads, in seconds")
	register(key.NetworkFingerprint, true, "Mimic a Chrome TLS handshake when talking to https endpoints")
	register(key.NetworkInsecureTLS, true, "Skip certificate verification.\nMany aggregator hosts serve broken certificates")
	register(key.LimitsVideoMB, 100, "Largest video payload accepted, in megabytes")
	register(key.LimitsImageMB, 15, "Largest image payload accepted, in megabytes")
	register(key.PreloadCapacity, 2, "How many videos may wait in the preload queue")
	register(key.PreloadOnPop, true, "Start another preload right after an item is taken from the queue")
	register(key.DownloadsRetentionDays, 7, "Downloaded files older than this many days are removed on startup.\n0 keeps them forever")
	register(key.MetricsEnable, true, "Expose Prometheus metrics at /metrics")
	register(key.EventsEnable, true, "Expose the websocket event feed at /api/events")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.Player, "", "Application used by \"fetch --open\".\nEmpty means the system default handler")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, false, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
