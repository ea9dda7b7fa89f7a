package app

import (
	"github.com/mediaroll/mediaroll/catalog"
	"github.com/mediaroll/mediaroll/config"
	"github.com/mediaroll/mediaroll/download"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/network"
	"github.com/mediaroll/mediaroll/where"
	"github.com/spf13/viper"
)

// Options configures an App.
type Options struct {
	// Resolve is used for endpoint resolution. Redirects are never followed.
	Resolve network.Options
	// Download is used for full-body downloads. Redirects are walked by hand.
	Download network.Options
	// Proxy is used by the stream server when relaying to the last resolved URL.
	Proxy network.Options

	VideoLimit int64
	ImageLimit int64

	PreloadCapacity int
	PreloadOnPop    bool

	Metrics bool
	Events  bool

	// Store persists the catalog. Nil means a gache file under where.Catalog.
	Store catalog.Store
}

// OptionsFromConfig reads Options from viper.
func OptionsFromConfig() Options {
	base := network.Options{
		Fingerprint: viper.GetBool(key.NetworkFingerprint),
		Insecure:    viper.GetBool(key.NetworkInsecureTLS),
		UserAgent:   viper.GetString(key.NetworkUserAgent),
	}

	resolve := base
	resolve.Timeout = config.Seconds(key.NetworkTimeout)
	resolve.ConnectTimeout = config.Seconds(key.NetworkConnectTimeout)

	dl := base
	dl.Timeout = config.Seconds(key.NetworkDownloadTimeout)
	dl.ConnectTimeout = config.Seconds(key.NetworkDownloadConnectTimeout)
	dl.Referer = viper.GetString(key.NetworkReferer)

	proxy := dl
	proxy.Timeout = 0
	proxy.MaxRedirects = download.MaxRedirects

	return Options{
		Resolve:         resolve,
		Download:        dl,
		Proxy:           proxy,
		VideoLimit:      config.Megabytes(key.LimitsVideoMB),
		ImageLimit:      config.Megabytes(key.LimitsImageMB),
		PreloadCapacity: viper.GetInt(key.PreloadCapacity),
		PreloadOnPop:    viper.GetBool(key.PreloadOnPop),
		Metrics:         viper.GetBool(key.MetricsEnable),
		Events:          viper.GetBool(key.EventsEnable),
	}
}

func (o Options) store() catalog.Store {
	if o.Store != nil {
		return o.Store
	}
	return catalog.NewGacheStore(where.Catalog())
}
