// internal/workers/ewaste/locate-facilities/config.go
package locatefacilities

import "time"

type Config struct {
	CacheTTL     time.Duration
	DefaultLimit int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:     10 * time.Minute,
		DefaultLimit: 10,
		Timeout:      5 * time.Second,
	}
}
