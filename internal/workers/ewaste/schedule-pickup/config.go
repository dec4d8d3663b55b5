// internal/workers/ewaste/schedule-pickup/config.go
package schedulepickup

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
