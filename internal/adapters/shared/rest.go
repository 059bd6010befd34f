// Package shared holds transport helpers common to all pricing-source adapters.
package shared

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/solescan/solescan/errs"
)

const defaultMaxAttempts = 3

// RESTClient issues throttled, retried GET requests against one pricing
// source and maps transport failures onto the adapter error taxonomy.
type RESTClient struct {
	source      string
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	headers     map[string]string
	maxAttempts int
}

// NewRESTClient builds a client for the source. The politeness interval
// spaces successive requests to the upstream API; zero disables throttling.
func NewRESTClient(source, baseURL string, timeout, politeness time.Duration, headers map[string]string) *RESTClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if politeness > 0 {
		limiter = rate.NewLimiter(rate.Every(politeness), 1)
	}
	client := new(http.Client)
	client.Timeout = timeout
	return &RESTClient{
		source:      source,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		limiter:     limiter,
		headers:     headers,
		maxAttempts: defaultMaxAttempts,
	}
}

// GetJSON fetches path with the given query string and returns the raw body.
// Transient failures (transport errors, 5xx) retry with exponential backoff;
// throttling and missing resources map to their codes without retrying.
func (c *RESTClient) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.New(c.source, errs.CodeProviderUnavailable,
			errs.WithMessage("throttle wait interrupted"), errs.WithCause(err))
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	backoffCfg := backoff.NewExponentialBackOff()
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			sleep := backoffCfg.NextBackOff()
			if sleep == backoff.Stop {
				break
			}
			select {
			case <-ctx.Done():
				return nil, errs.New(c.source, errs.CodeProviderUnavailable,
					errs.WithMessage("retry cancelled"), errs.WithCause(ctx.Err()))
			case <-time.After(sleep):
			}
		}

		body, retryable, err := c.get(ctx, target)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *RESTClient) get(ctx context.Context, target string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, errs.New(c.source, errs.CodeProviderUnavailable, errs.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, errs.New(c.source, errs.CodeProviderUnavailable,
				errs.WithMessage("request cancelled"), errs.WithCause(ctx.Err()))
		}
		return nil, true, errs.New(c.source, errs.CodeProviderUnavailable,
			errs.WithMessage("transport failure"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, errs.New(c.source, errs.CodeRateLimited,
			errs.WithHTTP(resp.StatusCode), errs.WithMessage("source throttled the request"))
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, errs.New(c.source, errs.CodeProviderEmpty,
			errs.WithHTTP(resp.StatusCode), errs.WithMessage("no listing for identity"))
	case resp.StatusCode >= 500:
		return nil, true, errs.New(c.source, errs.CodeProviderUnavailable,
			errs.WithHTTP(resp.StatusCode), errs.WithMessage("source unavailable"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, errs.New(c.source, errs.CodeProviderUnavailable,
			errs.WithHTTP(resp.StatusCode), errs.WithMessage("unexpected status"))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errs.New(c.source, errs.CodeProviderUnavailable,
			errs.WithMessage("read response"), errs.WithCause(err))
	}
	return payload, false, nil
}
