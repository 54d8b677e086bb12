package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"zombie-siege/logging"
)

const (
	DefaultPort            = 3000
	DefaultTickRate        = 10
	DefaultZombieBatchSize = 10
	DefaultRespawnDelay    = 3 * time.Second
	DefaultSendQueueSize   = 64
)

// Config is the environment-derived server configuration.
type Config struct {
	Port            int
	TickRate        int
	ZombieBatchSize int
	RespawnDelay    time.Duration
	SendQueueSize   int
	LogSinks        []string
	LogJSONPath     string
	LogLevel        logging.Severity
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:            DefaultPort,
		TickRate:        DefaultTickRate,
		ZombieBatchSize: DefaultZombieBatchSize,
		RespawnDelay:    DefaultRespawnDelay,
		SendQueueSize:   DefaultSendQueueSize,
		LogSinks:        []string{"console"},
		LogLevel:        logging.SeverityInfo,
	}
}

// Addr renders the listen address for net/http.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadDotEnv reads variables from the given files (".env" when none are
// named) without overriding the process environment. A missing file is not an
// error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", file, err)
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// FromEnv builds a Config from lookup, keeping defaults for unset variables.
// Invalid values keep their default and are reported in the returned slice so
// the caller can log them.
func FromEnv(lookup func(string) (string, bool)) (Config, []error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()
	var problems []error

	readInt := func(key string, target *int, minimum int) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			problems = append(problems, fmt.Errorf("invalid %s=%q: %w", key, raw, err))
			return
		}
		if value < minimum {
			problems = append(problems, fmt.Errorf("invalid %s=%q: must be at least %d", key, raw, minimum))
			return
		}
		*target = value
	}

	readInt("PORT", &cfg.Port, 1)
	readInt("TICK_RATE", &cfg.TickRate, 1)
	readInt("ZOMBIE_BATCH_SIZE", &cfg.ZombieBatchSize, 0)
	readInt("SEND_QUEUE_SIZE", &cfg.SendQueueSize, 1)

	if raw, ok := lookup("RESPAWN_DELAY"); ok && strings.TrimSpace(raw) != "" {
		value, err := time.ParseDuration(strings.TrimSpace(raw))
		switch {
		case err != nil:
			problems = append(problems, fmt.Errorf("invalid RESPAWN_DELAY=%q: %w", raw, err))
		case value < 0:
			problems = append(problems, fmt.Errorf("invalid RESPAWN_DELAY=%q: must not be negative", raw))
		default:
			cfg.RespawnDelay = value
		}
	}

	if raw, ok := lookup("LOG_SINKS"); ok && strings.TrimSpace(raw) != "" {
		var sinks []string
		for _, part := range strings.Split(raw, ",") {
			if name := strings.TrimSpace(part); name != "" {
				sinks = append(sinks, name)
			}
		}
		cfg.LogSinks = sinks
	}

	if raw, ok := lookup("LOG_JSON_PATH"); ok {
		cfg.LogJSONPath = strings.TrimSpace(raw)
	}

	if raw, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(raw) != "" {
		if level, ok := logging.ParseSeverity(raw); ok {
			cfg.LogLevel = level
		} else {
			problems = append(problems, fmt.Errorf("invalid LOG_LEVEL=%q", raw))
		}
	}

	return cfg, problems
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, []error) {
	var problems []error
	if err := LoadDotEnv(); err != nil {
		problems = append(problems, err)
	}
	cfg, envProblems := FromEnv(os.LookupEnv)
	return cfg, append(problems, envProblems...)
}
