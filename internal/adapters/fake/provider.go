// Package fake provides a deterministic in-memory provider for tests and local runs.
package fake

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// Provider returns canned results with an optional artificial delay. It
// records call counts so tests can assert on fan-out and cache behavior.
type Provider struct {
	ProviderName string
	Result       schema.ProviderResult
	Err          error
	Delay        time.Duration

	calls atomic.Int64
}

// Name implements the provider contract.
func (p *Provider) Name() string {
	if p.ProviderName == "" {
		return "fake"
	}
	return p.ProviderName
}

// Fetch waits out the configured delay (respecting cancellation) and returns
// the canned result or error.
func (p *Provider) Fetch(ctx context.Context, _ schema.SneakerIdentity) (schema.ProviderResult, error) {
	p.calls.Add(1)
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return schema.ProviderResult{}, errs.New(p.Name(), errs.CodeProviderUnavailable,
				errs.WithMessage("fetch cancelled"), errs.WithCause(ctx.Err()))
		case <-timer.C:
		}
	}
	if p.Err != nil {
		return schema.ProviderResult{}, p.Err
	}
	return p.Result, nil
}

// Calls reports how many times Fetch ran.
func (p *Provider) Calls() int64 {
	return p.calls.Load()
}
