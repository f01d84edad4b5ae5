package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Source toggles and item-count targets.
	HatenaEnabled      bool   `env:"HATENA_ENABLED" envDefault:"true"`
	HatenaPopularCount int    `env:"HATENA_POPULAR_COUNT" envDefault:"25"`
	HatenaNewCount     int    `env:"HATENA_NEW_COUNT" envDefault:"15"`
	HackerNewsEnabled  bool   `env:"HACKERNEWS_ENABLED" envDefault:"true"`
	HackerNewsCount    int    `env:"HACKERNEWS_COUNT" envDefault:"20"`
	RedditEnabled      bool   `env:"REDDIT_ENABLED" envDefault:"true"`
	RedditCount        int    `env:"REDDIT_COUNT" envDefault:"15"`
	RedditSubreddit    string `env:"REDDIT_SUBREDDIT" envDefault:"programming"`

	// Digest shape.
	WordBudget        int     `env:"WORD_BUDGET" envDefault:"1800"`
	BudgetTolerance   float64 `env:"BUDGET_TOLERANCE" envDefault:"0.2"`
	HighlightCount    int     `env:"HIGHLIGHT_COUNT" envDefault:"5"`
	DiversityFraction float64 `env:"DIVERSITY_FRACTION" envDefault:"0.5"`

	// Summarization service.
	LLMProvider   string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey     string        `env:"LLM_API_KEY"`
	LLMModel      string        `env:"LLM_MODEL"`
	LLMMaxTokens  int           `env:"LLM_MAX_TOKENS" envDefault:"4000"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`
	LLMMaxRetries int           `env:"LLM_MAX_RETRIES" envDefault:"3"`
	LLMRetryDelay time.Duration `env:"LLM_RETRY_DELAY" envDefault:"5s"`
	RateLimitRPS  float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Archive.
	ArchiveDir string `env:"ARCHIVE_DIR" envDefault:"./archive"`
	KeepDays   int    `env:"KEEP_DAYS" envDefault:"90"`

	// Scheduling and fetch.
	Timezone     string        `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
	ScheduleTime string        `env:"SCHEDULE_TIME" envDefault:"07:00"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
