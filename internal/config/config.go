package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Poll        PollConfig        `yaml:"poll"`
	Progression ProgressionConfig `yaml:"progression"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// PollConfig holds poll creation settings.
type PollConfig struct {
	// MinRankCandidates is the minimum size of a rank-derived candidate list.
	MinRankCandidates int `yaml:"min_rank_candidates" env:"POLL_MIN_RANK_CANDIDATES" env-default:"3"`
	// MaxRankCandidates caps how many top-ranked entries become candidates.
	MaxRankCandidates int `yaml:"max_rank_candidates" env:"POLL_MAX_RANK_CANDIDATES" env-default:"10"`
	// MinCategoryTotal is the minimum number of category winners a
	// category-quota poll needs when some categories came back empty.
	MinCategoryTotal int `yaml:"min_category_total" env:"POLL_MIN_CATEGORY_TOTAL" env-default:"5"`
	// VotingDays is how long a scheduler-created poll stays open.
	VotingDays int `yaml:"voting_days" env:"POLL_VOTING_DAYS" env-default:"7"`
}

// ProgressionConfig holds stamp/level settings.
type ProgressionConfig struct {
	// HistoryPageSize bounds level-history reads.
	HistoryPageSize int `yaml:"history_page_size" env:"PROGRESSION_HISTORY_PAGE_SIZE" env-default:"50"`
}
