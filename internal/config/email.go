package config

// EmailLimitConfig caps outbound transactional mail.  Defaults match the
// free tier of a typical SMTP relay (500/day, 100/hour).
type EmailLimitConfig struct {
	DailyLimit  int
	HourlyLimit int
}

// LoadEmailLimitConfig reads EMAIL_DAILY_LIMIT / EMAIL_HOURLY_LIMIT with
// safe defaults.
func LoadEmailLimitConfig() EmailLimitConfig {
	cfg := EmailLimitConfig{
		DailyLimit:  envInt("EMAIL_DAILY_LIMIT", 500),
		HourlyLimit: envInt("EMAIL_HOURLY_LIMIT", 100),
	}
	if cfg.DailyLimit < 1 {
		cfg.DailyLimit = 1
	}
	if cfg.HourlyLimit < 1 {
		cfg.HourlyLimit = 1
	}
	return cfg
}
