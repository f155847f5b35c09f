// Package module wires the ingest pipeline from config and shared deps
package module

import (
	"errors"
	"maps"

	"apiloader/internal/adapters/ingest/restapi"
	"apiloader/internal/modkit"
	"apiloader/internal/modkit/repokit"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"
	"apiloader/internal/services/ingest/guardrails"
	"apiloader/internal/services/ingest/normalize"
	"apiloader/internal/services/ingest/repo"
	"apiloader/internal/services/ingest/service"
	"apiloader/internal/services/ingest/validation"
)

// Ports defines the ingest module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the ingest module
type Module struct {
	deps  modkit.Deps
	opts  Options
	table domain.TableDef
	ports Ports
}

// New reads Options from deps.Cfg, loads the schema file and wires the pipeline
func New(deps modkit.Deps) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	def, err := LoadTableDef(opts.Pipeline.SchemaFile)
	if err != nil {
		return nil, err
	}
	return Build(deps, opts, def)
}

// Builder adapts New to modkit.Builder
func Builder(deps modkit.Deps) (modkit.Module, error) {
	m, err := New(deps)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var _ modkit.Builder = Builder

// Build wires the pipeline from already validated options and a table definition
func Build(deps modkit.Deps, opts Options, def domain.TableDef) (*Module, error) {
	if deps.DB == nil {
		return nil, errors.New("ingest: database is required")
	}
	if opts.Pipeline.Table != "" {
		def.Name = opts.Pipeline.Table
	}

	fetch, err := restapi.NewClient(restapi.Options{
		BaseURL:     opts.API.BaseURL,
		Token:       opts.API.Token,
		UserAgent:   opts.API.UserAgent,
		Timeout:     opts.API.Timeout,
		MaxAttempts: opts.API.MaxAttempts,
		BackoffBase: opts.API.BackoffBase,
		BackoffMax:  opts.API.BackoffMax,
		MaxPages:    opts.API.MaxPages,
		CursorParam: opts.API.CursorParam,
	})
	if err != nil {
		return nil, err
	}
	norm, err := normalize.New(def)
	if err != nil {
		return nil, err
	}
	rules := make([]domain.Rule, 0, len(opts.Pipeline.Rules))
	for _, r := range opts.Pipeline.Rules {
		rules = append(rules, domain.Rule(r))
	}
	valid, err := validation.New(def, validation.WithRules(rules...))
	if err != nil {
		return nil, err
	}

	db := deps.DB
	if deps.Dialect == store.DialectPostgres && opts.Pipeline.StatementTimeout > 0 {
		db = repokit.WithBeginHooks(db, repokit.StatementTimeout(int(opts.Pipeline.StatementTimeout.Milliseconds())))
	}
	load, err := repo.NewLoader(db, deps.Dialect)
	if err != nil {
		return nil, err
	}

	svc := service.New(fetch, norm, valid, load, service.Config{
		Table:  def,
		DryRun: opts.Pipeline.DryRun,
		Timeouts: guardrails.Timeouts{
			Run:   opts.Pipeline.RunTimeout,
			Fetch: opts.Pipeline.FetchTimeout,
			Load:  opts.Pipeline.LoadTimeout,
		},
		MaxSamples: opts.Pipeline.MaxSamples,
	})

	m := &Module{deps: deps, opts: opts, table: def}
	m.ports = Ports{Runner: svc}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "ingest" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Table returns the effective table definition
func (m *Module) Table() domain.TableDef { return m.table }

// Params merges the configured default query with extra; extra wins
func (m *Module) Params(endpoint string, extra map[string]string) domain.FetchParams {
	if endpoint == "" {
		endpoint = m.opts.API.Endpoint
	}
	q := make(map[string]string, len(m.opts.API.Params)+len(extra))
	maps.Copy(q, m.opts.API.Params)
	maps.Copy(q, extra)
	return domain.FetchParams{Endpoint: endpoint, Query: q}
}
