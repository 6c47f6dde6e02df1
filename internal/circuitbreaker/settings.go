package circuitbreaker

import "time"

// Settings tune a breaker. They are loaded from the service configuration.
type Settings struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	SuccessThreshold uint32        `mapstructure:"success_threshold"`
}

// DefaultSettings mirror the values used for outbound HTTP dependencies.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = d.MaxRequests
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.Interval < 0 {
		s.Interval = d.Interval
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = d.SuccessThreshold
	}
	return s
}
