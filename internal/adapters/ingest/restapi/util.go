package restapi

import (
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	perr "apiloader/internal/platform/errors"
	"apiloader/internal/services/ingest/domain"
)

// endpointURL joins endpoint onto the base url and merges params into its query
func (c *Client) endpointURL(endpoint string, params map[string]string) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(strings.TrimSpace(endpoint), "/"))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "restapi: bad endpoint %q", endpoint)
	}
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + ref.Path
	q := ref.Query()
	for _, k := range slices.Sorted(maps.Keys(params)) {
		q.Set(k, params[k])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// nextURL resolves an envelope's next value. Absolute urls and rooted paths are followed
// as is; anything else is an opaque cursor sent on the first page's url
func (c *Client) nextURL(first, next string) (string, error) {
	next = strings.TrimSpace(next)
	if strings.HasPrefix(next, "http://") || strings.HasPrefix(next, "https://") {
		u, err := url.Parse(next)
		if err != nil {
			return "", perr.Wrapf(err, perr.ErrorCodeJSON, "restapi: bad next url %q", next)
		}
		if !c.sameOrigin(u) {
			return "", &domain.ResponseFormatError{URL: first, Reason: "next link leaves " + c.base.Host + ": " + u.Host}
		}
		return next, nil
	}
	if strings.HasPrefix(next, "/") {
		ref, err := url.Parse(next)
		if err != nil {
			return "", perr.Wrapf(err, perr.ErrorCodeJSON, "restapi: bad next path %q", next)
		}
		return c.base.ResolveReference(ref).String(), nil
	}
	u, err := url.Parse(first)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "restapi: bad url %q", first)
	}
	q := u.Query()
	q.Set(c.opts.CursorParam, next)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseRetryAfter accepts delta seconds or an HTTP date
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

// bodyTail reads up to n bytes for diagnostics and closes the body
func bodyTail(rc io.ReadCloser, n int64) string {
	b, _ := io.ReadAll(io.LimitReader(rc, n))
	_ = rc.Close()
	return strings.TrimSpace(string(b))
}

// sameOrigin reports whether u has the base url's scheme and host
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.base.Scheme) && strings.EqualFold(u.Host, c.base.Host)
}
