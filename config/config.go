package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the process configuration.
type Config struct {
	Postgres   PostgresConfig   `yaml:"postgres"`
	NATS       NATSConfig       `yaml:"nats"`
	HTTP       HTTPConfig       `yaml:"http"`
	Tournament TournamentConfig `yaml:"tournament"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the public HTTP surface configuration.
type HTTPConfig struct {
	Addr              string  `yaml:"addr"`
	VoteRatePerSecond float64 `yaml:"vote_rate_per_second"`
	VoteRateBurst     int     `yaml:"vote_rate_burst"`
}

// TournamentConfig holds the voting and advancement policy knobs. Thresholds
// here are policy, not architecture; the state machine never branches on them.
type TournamentConfig struct {
	// NodeID tags counter writes from this process. Empty means derive one
	// from the hostname and pid at startup.
	NodeID string `yaml:"node_id"`
	// DailyVoteLimit caps admitted votes per voter per rolling 24h.
	DailyVoteLimit int `yaml:"daily_vote_limit"`
	// VotingWindow is the voting duration stamped onto a newly opened slot.
	VotingWindow time.Duration `yaml:"voting_window"`
	// CounterBucket is the JetStream KV bucket backing the counter store.
	CounterBucket string `yaml:"counter_bucket"`
	// CounterRetention bounds counter entry lifetime; the durable store is
	// authoritative once synchronized, so expiry is safe.
	CounterRetention time.Duration `yaml:"counter_retention"`
	// LockTTL bounds how long a crashed advancement holder can block the next
	// attempt.
	LockTTL time.Duration `yaml:"lock_ttl"`
	// MultiTrack selects the per-track active-season query. Consulted once at
	// the start of an advancement run.
	MultiTrack bool   `yaml:"multi_track"`
	Track      string `yaml:"track"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Env vars override file values
// either way.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("VOTE_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HTTP.VoteRatePerSecond = f
		}
	}
	if v := os.Getenv("VOTE_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.VoteRateBurst = n
		}
	}
	if v := os.Getenv("NODE_ID"); v != "" {
		cfg.Tournament.NodeID = v
	}
	if v := os.Getenv("DAILY_VOTE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tournament.DailyVoteLimit = n
		}
	}
	if v := os.Getenv("VOTING_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tournament.VotingWindow = d
		}
	}
	if v := os.Getenv("COUNTER_BUCKET"); v != "" {
		cfg.Tournament.CounterBucket = v
	}
	if v := os.Getenv("COUNTER_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tournament.CounterRetention = d
		}
	}
	if v := os.Getenv("ADVANCE_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tournament.LockTTL = d
		}
	}
	if v := os.Getenv("MULTI_TRACK"); v != "" {
		cfg.Tournament.MultiTrack = v == "true"
	}
	if v := os.Getenv("TRACK"); v != "" {
		cfg.Tournament.Track = v
	}

	cfg.applyDefaults()

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not set (config file or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL not set (config file or NATS_URL)")
	}

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.VoteRatePerSecond <= 0 {
		cfg.HTTP.VoteRatePerSecond = 50
	}
	if cfg.HTTP.VoteRateBurst <= 0 {
		cfg.HTTP.VoteRateBurst = 100
	}
	if cfg.Tournament.NodeID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "node"
		}
		cfg.Tournament.NodeID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.Tournament.DailyVoteLimit <= 0 {
		cfg.Tournament.DailyVoteLimit = 50
	}
	if cfg.Tournament.VotingWindow <= 0 {
		cfg.Tournament.VotingWindow = 72 * time.Hour
	}
	if cfg.Tournament.CounterBucket == "" {
		cfg.Tournament.CounterBucket = "VOTE_COUNTERS"
	}
	if cfg.Tournament.CounterRetention <= 0 {
		cfg.Tournament.CounterRetention = 30 * 24 * time.Hour
	}
	if cfg.Tournament.LockTTL <= 0 {
		cfg.Tournament.LockTTL = 2 * time.Minute
	}
}
