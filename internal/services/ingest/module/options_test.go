package module

import (
	"testing"
	"time"

	"apiloader/internal/platform/config"
	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/testkit"
)

func TestFromConfig_Defaults(t *testing.T) {
	t.Setenv("APITEST_API_BASE_URL", "https://api.example.com")
	t.Setenv("APITEST_PIPELINE_SCHEMA_FILE", "/etc/apiloader/repos.yaml")
	t.Setenv("APITEST_API_PARAMS", "per_page=100, sort=updated")
	t.Setenv("APITEST_PIPELINE_RULES", "required,unique_key")

	o := FromConfig(config.New().Prefix("APITEST_"))
	if o.API.MaxAttempts != 5 || o.API.BackoffBase != 500*time.Millisecond || o.API.CursorParam != "cursor" {
		t.Fatalf("api defaults = %+v", o.API)
	}
	if o.API.Params["per_page"] != "100" || o.API.Params["sort"] != "updated" {
		t.Fatalf("params = %v", o.API.Params)
	}
	if len(o.Pipeline.Rules) != 2 || o.Pipeline.RunTimeout != 15*time.Minute || o.Pipeline.MaxSamples != 10 {
		t.Fatalf("pipeline = %+v", o.Pipeline)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestOptions_ValidateNamesEnvKeys(t *testing.T) {
	t.Parallel()
	o := testOptions("")
	o.API.MaxAttempts = 0
	o.Pipeline.Rules = []string{"spelling"}

	err := o.Validate()
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
	for _, key := range []string{"API_BASE_URL", "API_MAX_ATTEMPTS", "PIPELINE_RULES"} {
		testkit.MustContain(t, err.Error(), key)
	}
}

func TestOptions_BackoffOrdering(t *testing.T) {
	t.Parallel()
	o := testOptions("https://api.example.com")
	o.API.BackoffMax = o.API.BackoffBase / 2
	if err := o.Validate(); err == nil {
		t.Fatal("backoff max below base accepted")
	}
}

func TestDBOptions(t *testing.T) {
	t.Parallel()
	o := DBOptions{
		Driver: "postgres", Host: "db", Port: 5433, Name: "warehouse",
		User: "loader", Password: "p@ss", SSLMode: "require", MaxConns: 4,
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := o.PostgresURL(); got != "postgres://loader:p%40ss@db:5433/warehouse?sslmode=require" {
		t.Fatalf("url = %s", got)
	}
	cfg := o.StoreConfig("apiloader")
	if cfg.Driver != "postgres" || cfg.PG.MaxConns != 4 || cfg.AppName != "apiloader" {
		t.Fatalf("store config = %+v", cfg)
	}

	o.URL = "postgres://elsewhere/db"
	o.Name = ""
	if o.PostgresURL() != o.URL || o.Validate() != nil {
		t.Fatal("DB_URL must win over discrete fields")
	}

	o.URL = ""
	if err := o.Validate(); err == nil {
		t.Fatal("postgres without name accepted")
	}

	lite := DBOptions{Driver: "sqlite", Port: 5432, SSLMode: "disable", MaxConns: 1}
	if err := lite.Validate(); err == nil {
		t.Fatal("sqlite without path accepted")
	}
	lite.Path = ":memory:"
	if err := lite.Validate(); err != nil {
		t.Fatalf("sqlite: %v", err)
	}

	bad := lite
	bad.Driver = "mysql"
	testkit.MustContain(t, bad.Validate().Error(), "DB_DRIVER")
}
