package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the tunable waits and limits of one invocation.
// Every value can be overridden through an environment variable.
type Timeouts struct {
	PollAttempts      int           // Status polls while an instance is building
	PollInterval      time.Duration // Delay between two status polls
	ProbeTimeout      time.Duration // Wall-clock budget for probing a whole cluster
	ProbeConcurrency  int           // Instances probed at the same time
	SSHDialTimeout    time.Duration // TCP+handshake timeout of one SSH connection
	PingTimeout       time.Duration // Wait for the single ICMP echo reply
	RetryMaxAttempts  int           // Retries of locked/rate-limited provider calls
	RetryInitialDelay time.Duration // First backoff delay of those retries
}

// LoadTimeouts reads timeouts from the environment, falling back to defaults
// for unset or unparsable values.
//
// Environment Variables:
//   - MAGNET_POLL_ATTEMPTS (default: 60)
//   - MAGNET_POLL_INTERVAL (default: 5s)
//   - MAGNET_PROBE_TIMEOUT (default: 10m)
//   - MAGNET_PROBE_CONCURRENCY (default: 4)
//   - MAGNET_SSH_DIAL_TIMEOUT (default: 10s)
//   - MAGNET_PING_TIMEOUT (default: 5s)
//   - MAGNET_RETRY_MAX_ATTEMPTS (default: 5)
//   - MAGNET_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollAttempts:      parseInt("MAGNET_POLL_ATTEMPTS", 60),
		PollInterval:      parseDuration("MAGNET_POLL_INTERVAL", 5*time.Second),
		ProbeTimeout:      parseDuration("MAGNET_PROBE_TIMEOUT", 10*time.Minute),
		ProbeConcurrency:  parseInt("MAGNET_PROBE_CONCURRENCY", 4),
		SSHDialTimeout:    parseDuration("MAGNET_SSH_DIAL_TIMEOUT", 10*time.Second),
		PingTimeout:       parseDuration("MAGNET_PING_TIMEOUT", 5*time.Second),
		RetryMaxAttempts:  parseInt("MAGNET_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("MAGNET_RETRY_INITIAL_DELAY", time.Second),
	}
}

func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}
