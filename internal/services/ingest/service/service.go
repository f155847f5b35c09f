// Package service runs the ingest pipeline as an explicit state machine
package service

import (
	"context"
	"time"

	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/logger"
	"apiloader/internal/services/ingest/domain"
	"apiloader/internal/services/ingest/guardrails"

	"github.com/google/uuid"
)

// Config holds the per-run settings of the pipeline
type Config struct {
	Table  domain.TableDef
	DryRun bool

	// Timeouts applied via guardrails
	Timeouts guardrails.Timeouts

	// MaxSamples caps the normalize and reject samples kept in a report; <=0 -> 10
	MaxSamples int
}

// TransitionFunc observes every state change of a run
type TransitionFunc func(runID string, from, to domain.Stage)

// Service implements domain.RunnerPort
type Service struct {
	Fetch domain.Fetcher
	Norm  domain.Normalizer
	Valid domain.RowValidator
	Load  domain.Loader
	Cfg   Config

	// OnTransition is optional
	OnTransition TransitionFunc

	now   func() time.Time
	newID func() string
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the pipeline service
func New(f domain.Fetcher, n domain.Normalizer, v domain.RowValidator, l domain.Loader, cfg Config) *Service {
	if f == nil || n == nil || v == nil || l == nil {
		panic("ingest.Service requires a fetcher, normalizer, validator and loader")
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 10
	}
	return &Service{
		Fetch: f, Norm: n, Valid: v, Load: l,
		Cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// run is the mutable state of one Run call; the report is copied out once at the end
type run struct {
	s      *Service
	ctx    context.Context
	report domain.LoadReport
}

// Run executes FETCHING -> NORMALIZING -> VALIDATING -> LOADING -> DONE.
// A non-nil error is always a *domain.StageError and the report state is FAILED
func (s *Service) Run(ctx context.Context, p domain.FetchParams) (domain.LoadReport, error) {
	r := &run{s: s, report: domain.LoadReport{
		RunID:     s.newID(),
		Table:     s.Cfg.Table.Name,
		StartedAt: s.now().UTC(),
		State:     domain.StagePending,
		DryRun:    s.Cfg.DryRun,
	}}
	ctx = logger.WithRun(ctx, r.report.RunID, r.report.Table)
	ctx, cancel := guardrails.ForRun(ctx, s.Cfg.Timeouts)
	defer cancel()
	r.ctx = ctx

	logger.C(ctx).Info().
		Str("endpoint", p.Endpoint).
		Bool("dry_run", s.Cfg.DryRun).
		Msg("run started")

	r.to(domain.StageFetching)
	recs, err := r.fetch(p)
	if err != nil {
		return r.fail(err)
	}

	r.to(domain.StageNormalizing)
	rows := r.normalize(recs)
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	r.to(domain.StageValidating)
	accepted := r.validate(rows)
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if !s.Cfg.DryRun {
		r.to(domain.StageLoading)
		if err := r.load(accepted); err != nil {
			r.report.Counts.Failed = len(accepted)
			return r.fail(err)
		}
	}

	r.to(domain.StageDone)
	r.report.FinishedAt = s.now().UTC()
	r.logSummary()
	return r.report, nil
}

func (r *run) to(next domain.Stage) {
	prev := r.report.State
	r.report.State = next
	r.ctx = logger.WithStage(r.ctx, string(next))
	logger.C(r.ctx).Debug().
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("stage transition")
	if r.s.OnTransition != nil {
		r.s.OnTransition(r.report.RunID, prev, next)
	}
}

// fail wraps err with the current stage and finalizes the report as FAILED
func (r *run) fail(err error) (domain.LoadReport, error) {
	stage := r.report.State
	serr := &domain.StageError{Stage: stage, Err: err}
	r.to(domain.StageFailed)
	r.report.FinishedAt = r.s.now().UTC()

	logger.C(r.ctx).Error().
		Err(err).
		Str("failed_in", string(stage)).
		Str("code", perr.CodeOf(err).String()).
		Msg("run failed")
	r.logSummary()
	return r.report, serr
}

// fetch drains the lazy sequence under the fetch budget
func (r *run) fetch(p domain.FetchParams) ([]domain.RawRecord, error) {
	ctx, cancel := guardrails.ForFetch(r.ctx, r.s.Cfg.Timeouts)
	defer cancel()

	var recs []domain.RawRecord
	for rec, err := range r.s.Fetch.Fetch(ctx, p.Endpoint, p.Query) {
		if err != nil {
			r.report.Counts.Fetched = len(recs)
			return nil, err
		}
		recs = append(recs, rec)
	}
	r.report.Counts.Fetched = len(recs)
	logger.C(r.ctx).Info().Int("records", len(recs)).Msg("fetch complete")
	return recs, nil
}

func (r *run) normalize(recs []domain.RawRecord) []domain.NormalizedRow {
	rows, failed := r.s.Norm.NormalizeAll(recs)
	r.report.Counts.Normalized = len(rows)
	r.report.Counts.NormalizeFailed = len(failed)
	for _, ne := range failed[:min(len(failed), r.s.Cfg.MaxSamples)] {
		r.report.NormalizeSamples = append(r.report.NormalizeSamples, domain.Sample{
			Index: ne.Index, Reason: ne.Reason, Column: ne.Column, Message: ne.Detail,
		})
	}
	return rows
}

func (r *run) validate(rows []domain.NormalizedRow) []domain.NormalizedRow {
	out := r.s.Valid.Validate(rows)
	c := &r.report.Counts
	c.Accepted = len(out.Accepted)
	c.Rejected = len(out.Rejected)
	c.Duplicates = out.Duplicates

	for _, res := range out.Rejected {
		if len(r.report.RejectSamples) >= r.s.Cfg.MaxSamples {
			break
		}
		if len(res.Violations) == 0 {
			continue
		}
		v := res.Violations[0]
		r.report.RejectSamples = append(r.report.RejectSamples, domain.Sample{
			Index: res.Row.Index, Reason: string(v.Rule), Column: v.Column, Message: v.Message,
		})
	}
	return out.Accepted
}

// load ensures the schema even for an empty batch; an empty batch writes nothing
func (r *run) load(rows []domain.NormalizedRow) error {
	ctx, cancel := guardrails.ForLoad(r.ctx, r.s.Cfg.Timeouts)
	defer cancel()

	if err := r.s.Load.EnsureSchema(ctx, r.s.Cfg.Table); err != nil {
		return err
	}
	if len(rows) == 0 {
		logger.C(r.ctx).Info().Msg("nothing to load")
		return nil
	}
	stats, err := r.s.Load.Upsert(ctx, r.s.Cfg.Table, rows)
	if err != nil {
		return err
	}
	c := &r.report.Counts
	c.Inserted, c.Updated, c.Unchanged = stats.Inserted, stats.Updated, stats.Unchanged
	return nil
}

func (r *run) logSummary() {
	rep := r.report
	c := rep.Counts
	log := logger.C(r.ctx)
	for _, s := range rep.NormalizeSamples {
		log.Warn().Int("index", s.Index).Str("reason", s.Reason).Str("column", s.Column).Msg(s.Message)
	}
	for _, s := range rep.RejectSamples {
		log.Warn().Int("index", s.Index).Str("rule", s.Reason).Str("column", s.Column).Msg(s.Message)
	}
	log.Info().
		Str("state", string(rep.State)).
		Bool("dry_run", rep.DryRun).
		Int("fetched", c.Fetched).
		Int("normalized", c.Normalized).
		Int("normalize_failed", c.NormalizeFailed).
		Int("accepted", c.Accepted).
		Int("rejected", c.Rejected).
		Int("duplicates", c.Duplicates).
		Int("inserted", c.Inserted).
		Int("updated", c.Updated).
		Int("unchanged", c.Unchanged).
		Int("failed", c.Failed).
		Dur("elapsed", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("run finished")
}
