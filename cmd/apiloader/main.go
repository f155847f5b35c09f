package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"apiloader/internal/core/version"
	"apiloader/internal/modkit"
	"apiloader/internal/modkit/module"
	"apiloader/internal/modkit/repokit"
	"apiloader/internal/platform/config"
	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/logger"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"
	ingestmod "apiloader/internal/services/ingest/module"
)

// paramFlag collects repeated -param k=v pairs
type paramFlag map[string]string

func (p paramFlag) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (p paramFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	p[strings.TrimSpace(k)] = v
	return nil
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	params := paramFlag{}
	var (
		fEndpoint = flag.String("endpoint", "", "API path relative to API_BASE_URL (default API_ENDPOINT)")
		fDryRun   = flag.Bool("dry-run", false, "fetch, normalize and validate without touching the database")
		fVersion  = flag.Bool("version", false, "print the build version and exit")
	)
	flag.Var(params, "param", "query parameter key=value, repeatable")
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info())
		return nil
	}

	// surface flags to module options that read PIPELINE_*
	if *fDryRun {
		mustSetEnv("PIPELINE_DRY_RUN", "true")
	}

	l := logger.Named("apiloader")
	root := config.New()

	dbOpts := ingestmod.DBFromConfig(root)
	if err := dbOpts.Validate(); err != nil {
		l.Error().Err(err).Msg("invalid database config")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, dbOpts.StoreConfig("apiloader"), store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Str("driver", dbOpts.Driver).Msg("store.Open failed")
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := repokit.Guard(ctx, st); err != nil {
		l.Error().Err(err).Msg("store not reachable")
		return err
	}

	deps := modkit.Deps{Cfg: root, Log: *l}.FromStore(st)
	m, err := ingestmod.New(deps)
	if err != nil {
		l.Error().Err(err).Str("code", perr.CodeOf(err).String()).Msg("ingest module wiring failed")
		return err
	}

	runner := module.MustPortsOf[domain.RunnerPort](m)
	p := m.Params(*fEndpoint, params)
	if p.Endpoint == "" {
		err := perr.InvalidArgf("no endpoint: pass -endpoint or set API_ENDPOINT")
		l.Error().Err(err).Msg("nothing to fetch")
		return err
	}

	rep, err := runner.Run(ctx, p)
	l.Info().
		Str("run_id", rep.RunID).
		Str("table", rep.Table).
		Str("state", string(rep.State)).
		Interface("counts", rep.Counts).
		Msg("load report")
	return err
}
