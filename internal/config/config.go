package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// Duration parses yaml values like "10m" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Dataset struct {
	SubmissionsPath string   `yaml:"submissions_path"`
	HandlesPath     string   `yaml:"handles_path"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

type Leaderboard struct {
	Ruleset  string   `yaml:"ruleset"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimit struct {
	IPLimitPerMin      int `yaml:"ip_limit_per_min"`
	RefreshLimitPerMin int `yaml:"refresh_limit_per_min"`
	BurstMultiplier    int `yaml:"burst_multiplier"`
}

type Config struct {
	Listen      string      `yaml:"listen"`
	Logger      Logger      `yaml:"logger"`
	Dataset     Dataset     `yaml:"dataset"`
	Leaderboard Leaderboard `yaml:"leaderboard"`
	Redis       Redis       `yaml:"redis"`
	RateLimit   RateLimit   `yaml:"rate_limit"`
	CORS        CORS        `yaml:"cors"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Logger: Logger{Level: "info"},
		Dataset: Dataset{
			SubmissionsPath: "data/submissions.json",
			HandlesPath:     "data/handles.json",
			RefreshInterval: Duration(10 * time.Minute),
		},
		Leaderboard: Leaderboard{
			Ruleset:  "letters2024",
			CacheTTL: Duration(5 * time.Minute),
		},
		RateLimit: RateLimit{
			IPLimitPerMin:      120,
			RefreshLimitPerMin: 2,
			BurstMultiplier:    2,
		},
		CORS: CORS{AllowedOrigins: []string{"*"}},
	}
}

// Load reads the config file at path over the defaults. An empty path
// returns the defaults as-is. Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SCOREBOARD_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SCOREBOARD_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SCOREBOARD_RULESET"); v != "" {
		cfg.Leaderboard.Ruleset = v
	}
	if v := os.Getenv("SCOREBOARD_SUBMISSIONS"); v != "" {
		cfg.Dataset.SubmissionsPath = v
	}
	if v := os.Getenv("SCOREBOARD_HANDLES"); v != "" {
		cfg.Dataset.HandlesPath = v
	}
	if v := os.Getenv("SCOREBOARD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SCOREBOARD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SCOREBOARD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
}
