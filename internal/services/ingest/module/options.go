package module

import (
	"time"

	"apiloader/internal/core/version"
	"apiloader/internal/platform/config"
	"apiloader/internal/platform/validate"
)

// Options holds configuration for the ingest module
type Options struct {
	API      APIOptions
	Pipeline PipelineOptions
}

// APIOptions configures the upstream REST client
type APIOptions struct {
	BaseURL     string            `env:"API_BASE_URL" validate:"required,url"`
	Token       string            `env:"API_TOKEN"`
	UserAgent   string            `env:"API_USER_AGENT" validate:"required"`
	Timeout     time.Duration     `env:"API_TIMEOUT" validate:"gt=0"`
	MaxAttempts int               `env:"API_MAX_ATTEMPTS" validate:"gte=1,lte=20"`
	BackoffBase time.Duration     `env:"API_BACKOFF_BASE" validate:"gt=0"`
	BackoffMax  time.Duration     `env:"API_BACKOFF_MAX" validate:"gtefield=BackoffBase"`
	MaxPages    int               `env:"API_MAX_PAGES" validate:"gte=0"`
	CursorParam string            `env:"API_CURSOR_PARAM" validate:"required"`
	Endpoint    string            `env:"API_ENDPOINT"`
	Params      map[string]string `env:"API_PARAMS"`
}

// PipelineOptions configures the run itself
type PipelineOptions struct {
	// Table overrides the name in the schema file when set
	Table            string        `env:"PIPELINE_TABLE"`
	SchemaFile       string        `env:"PIPELINE_SCHEMA_FILE" validate:"required"`
	Rules            []string      `env:"PIPELINE_RULES" validate:"dive,oneof=required type range enum primary_key unique_key"`
	DryRun           bool          `env:"PIPELINE_DRY_RUN"`
	FetchTimeout     time.Duration `env:"PIPELINE_FETCH_TIMEOUT" validate:"gte=0"`
	LoadTimeout      time.Duration `env:"PIPELINE_LOAD_TIMEOUT" validate:"gte=0"`
	RunTimeout       time.Duration `env:"PIPELINE_RUN_TIMEOUT" validate:"gte=0"`
	StatementTimeout time.Duration `env:"PIPELINE_STATEMENT_TIMEOUT" validate:"gte=0"`
	MaxSamples       int           `env:"PIPELINE_MAX_SAMPLES" validate:"gte=1"`
}

// FromConfig reads API_* and PIPELINE_* from cfg
func FromConfig(cfg config.Conf) Options {
	api := cfg.Prefix("API_")
	pl := cfg.Prefix("PIPELINE_")
	return Options{
		API: APIOptions{
			BaseURL:     api.MayString("BASE_URL", ""),
			Token:       api.MayString("TOKEN", ""),
			UserAgent:   api.MayString("USER_AGENT", version.UserAgent()),
			Timeout:     api.MayDuration("TIMEOUT", 30*time.Second),
			MaxAttempts: api.MayInt("MAX_ATTEMPTS", 5),
			BackoffBase: api.MayDuration("BACKOFF_BASE", 500*time.Millisecond),
			BackoffMax:  api.MayDuration("BACKOFF_MAX", 30*time.Second),
			MaxPages:    api.MayInt("MAX_PAGES", 0),
			CursorParam: api.MayString("CURSOR_PARAM", "cursor"),
			Endpoint:    api.MayString("ENDPOINT", ""),
			Params:      api.MayKV("PARAMS", nil),
		},
		Pipeline: PipelineOptions{
			Table:            pl.MayString("TABLE", ""),
			SchemaFile:       pl.MayString("SCHEMA_FILE", ""),
			Rules:            pl.MayCSV("RULES", nil),
			DryRun:           pl.MayBool("DRY_RUN", false),
			FetchTimeout:     pl.MayDuration("FETCH_TIMEOUT", 5*time.Minute),
			LoadTimeout:      pl.MayDuration("LOAD_TIMEOUT", 5*time.Minute),
			RunTimeout:       pl.MayDuration("RUN_TIMEOUT", 15*time.Minute),
			StatementTimeout: pl.MayDuration("STATEMENT_TIMEOUT", 0),
			MaxSamples:       pl.MayInt("MAX_SAMPLES", 10),
		},
	}
}

// Validate checks every option and names all offending env keys
func (o Options) Validate() error { return validate.Struct(o) }
