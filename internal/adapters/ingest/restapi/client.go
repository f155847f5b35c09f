// Package restapi provides a resilient JSON REST client that streams records page by page
package restapi

import (
	"context"
	"errors"
	"io"
	"iter"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/logger"
	"apiloader/internal/services/ingest/domain"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUA          = "apiloader"
	defaultMaxAttempts = 5
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 30 * time.Second
	defaultCursorParam = "cursor"
	defaultMaxBody     = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Token     string // sent as a bearer token when set
	UserAgent string
	Timeout   time.Duration // per request

	// MaxAttempts counts total calls per page, not retries
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// MaxPages bounds envelope pagination, 0 means unbounded
	MaxPages    int
	CursorParam string

	// MaxBodyBytes caps one response body
	MaxBodyBytes int64
}

// Client fetches JSON records with retry, backoff and lazy pagination
type Client struct {
	http   *http.Client
	opts   Options
	base   *url.URL
	log    logger.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
}

// NewClient validates o, fills defaults and builds a Client
func NewClient(o Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(o.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, perr.InvalidArgf("restapi: base url %q must be absolute", o.BaseURL)
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = defaultBackoffMax
	}
	if o.CursorParam == "" {
		o.CursorParam = defaultCursorParam
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBody
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		base:   base,
		log:    *logger.Named("restapi"),
		now:    time.Now,
		sleep:  sleepCtx,
		jitter: halfJitter,
	}, nil
}

// Fetch returns a lazy, single-use sequence of records from endpoint.
// Pages are requested only as the consumer iterates; the first error ends the sequence
func (c *Client) Fetch(ctx context.Context, endpoint string, params map[string]string) iter.Seq2[domain.RawRecord, error] {
	var used atomic.Bool
	return func(yield func(domain.RawRecord, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(nil, domain.ErrSequenceConsumed)
			return
		}

		first, err := c.endpointURL(endpoint, params)
		if err != nil {
			yield(nil, err)
			return
		}

		target := first
		seen := map[string]bool{}
		for page := 1; ; page++ {
			if seen[target] {
				yield(nil, &domain.ResponseFormatError{URL: target, Reason: "next link repeats a page already fetched"})
				return
			}
			seen[target] = true

			body, err := c.get(ctx, target)
			if err != nil {
				yield(nil, err)
				return
			}
			records, next, err := decodePage(target, body)
			if err != nil {
				yield(nil, err)
				return
			}
			c.log.Debug().Str("url", target).Int("page", page).Int("records", len(records)).Msg("restapi page")

			for _, r := range records {
				if !yield(r, nil) {
					return
				}
			}

			if next == "" {
				return
			}
			if c.opts.MaxPages > 0 && page >= c.opts.MaxPages {
				c.log.Info().Int("max_pages", c.opts.MaxPages).Msg("restapi page limit reached")
				return
			}
			target, err = c.nextURL(first, next)
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// get issues GETs against target until one succeeds, a non-retryable answer arrives,
// or MaxAttempts calls have been made
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var (
		lastStatus int
		lastErr    error
	)
	for attempt := range c.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "restapi new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if c.opts.Token != "" && c.sameOrigin(req.URL) {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastStatus, lastErr = 0, err
			wait = c.backoff(attempt)
			c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", wait).Msg("restapi transport error")

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, rerr := readBody(resp.Body, c.opts.MaxBodyBytes)
			c.log.Debug().Str("url", target).Int("status", resp.StatusCode).Int("attempt", attempt+1).
				Dur("latency", lat).Int("bytes", len(body)).Msg("restapi response")
			if rerr == nil {
				return body, nil
			}
			if errors.Is(rerr, errBodyTooLarge) {
				return nil, &domain.ResponseFormatError{URL: target, Reason: rerr.Error()}
			}
			lastStatus, lastErr = resp.StatusCode, rerr
			wait = c.backoff(attempt)
			c.log.Warn().Err(rerr).Int("attempt", attempt+1).Dur("retry_in", wait).Msg("restapi body read failed")

		case resp.StatusCode == http.StatusTooManyRequests:
			lastStatus, lastErr = resp.StatusCode, nil
			if ra, ok := parseRetryAfter(resp.Header.Get("Retry-After"), c.now()); ok {
				wait = min(ra, c.opts.BackoffMax)
			} else {
				wait = c.backoff(attempt)
			}
			_ = drainAndClose(resp.Body)
			c.log.Warn().Int("attempt", attempt+1).Dur("retry_in", wait).Msg("restapi rate limited")

		case resp.StatusCode >= 500:
			lastStatus, lastErr = resp.StatusCode, nil
			wait = c.backoff(attempt)
			_ = drainAndClose(resp.Body)
			c.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Dur("retry_in", wait).Msg("restapi server error")

		default:
			tail := bodyTail(resp.Body, 2048)
			return nil, &domain.ClientRequestError{Status: resp.StatusCode, URL: target, BodyTail: tail}
		}

		if attempt == c.opts.MaxAttempts-1 {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, &domain.FetchExhaustedError{URL: target, Attempts: c.opts.MaxAttempts, LastStatus: lastStatus, LastErr: lastErr}
}

// backoff is base<<attempt capped at BackoffMax, then jittered
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.BackoffBase
	for range attempt {
		if d >= c.opts.BackoffMax {
			break
		}
		d *= 2
	}
	return c.jitter(min(d, c.opts.BackoffMax))
}

// halfJitter spreads d over [d/2, d)
func halfJitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + time.Duration(rand.Int63n(int64(half)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errBodyTooLarge = errors.New("response body exceeds size limit")

func readBody(rc io.ReadCloser, limit int64) ([]byte, error) {
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errBodyTooLarge
	}
	return b, nil
}
