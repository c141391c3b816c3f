package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables override file values. The prefix keeps them from
// colliding with unrelated process environments.
const envPrefix = "GR_"

func applyEnv(cfg *Config) {
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}

	if v, ok := lookupBool("METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = v
	}
	if v, ok := lookupInt("METRICS_PORT"); ok {
		cfg.Metrics.Port = v
	}
	if v, ok := lookup("METRICS_PATH"); ok {
		cfg.Metrics.Path = v
	}

	if v, ok := lookupBool("HEALTH_ENABLED"); ok {
		cfg.Health.Enabled = v
	}
	if v, ok := lookupInt("HEALTH_PORT"); ok {
		cfg.Health.Port = v
	}

	if v, ok := lookup("NATS_URLS"); ok {
		cfg.NATS.URLs = splitAndTrim(v)
	}
	if v, ok := lookup("NATS_USERNAME"); ok {
		cfg.NATS.Username = v
	}
	if v, ok := lookup("NATS_PASSWORD"); ok {
		cfg.NATS.Password = v
	}
	if v, ok := lookup("NATS_TOKEN"); ok {
		cfg.NATS.Token = v
	}

	if v, ok := lookupInt("SCHED_BUFFER_ITEMS"); ok {
		cfg.Scheduler.DefaultBufferItems = v
	}
	if v, ok := lookupInt("SCHED_MAX_CASCADE"); ok {
		cfg.Scheduler.MaxCascade = v
	}
	if v, ok := lookupDuration("SCHED_BACKOFF_INITIAL"); ok {
		cfg.Scheduler.BackoffInitial = v
	}
	if v, ok := lookupDuration("SCHED_BACKOFF_MAX"); ok {
		cfg.Scheduler.BackoffMax = v
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(envPrefix + name)
}

func lookupBool(name string) (bool, bool) {
	v, ok := lookup(name)
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}

func lookupInt(name string) (int, bool) {
	v, ok := lookup(name)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func lookupDuration(name string) (time.Duration, bool) {
	v, ok := lookup(name)
	if !ok {
		return 0, false
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
