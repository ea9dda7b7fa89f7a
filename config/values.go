package config

import (
	"time"

	"github.com/spf13/viper"
)

// Seconds reads an integer key holding a number of seconds.
// Non-positive values fall back to the registered default.
func Seconds(key string) time.Duration {
	n := viper.GetInt(key)
	if n <= 0 {
		if field, ok := Default[key]; ok {
			n, _ = field.Value.(int)
		}
	}
	return time.Duration(n) * time.Second
}

// Megabytes reads an integer key holding a size in megabytes and returns it in bytes.
func Megabytes(key string) int64 {
	n := viper.GetInt64(key)
	if n <= 0 {
		if field, ok := Default[key]; ok {
			v, _ := field.Value.(int)
			n = int64(v)
		}
	}
	return n << 20
}
