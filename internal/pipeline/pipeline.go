// Package pipeline orchestrates one pricing request end to end: classify,
// resolve, cache check, aggregate, cache put, format.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/adapters"
	"github.com/solescan/solescan/internal/aggregate"
	"github.com/solescan/solescan/internal/classify"
	"github.com/solescan/solescan/internal/observability"
	"github.com/solescan/solescan/internal/pricecache"
	"github.com/solescan/solescan/internal/resolver"
	"github.com/solescan/solescan/internal/schema"
	"github.com/solescan/solescan/internal/telemetry"
)

const (
	// DefaultDeadline spans classification through aggregation.
	DefaultDeadline = 10 * time.Second
	// DefaultAmbiguityMargin: a runner-up scoring at least this fraction of
	// the top candidate makes the resolution ambiguous instead of automatic.
	DefaultAmbiguityMargin = 0.8
)

// Stage names the orchestrator states for logging and failure context.
type Stage string

const (
	StageClassifying Stage = "classifying"
	StageResolving   Stage = "resolving"
	StageCacheCheck  Stage = "cache-check"
	StageAggregating Stage = "aggregating"
	StageCachePut    Stage = "cache-put"
	StageFormatting  Stage = "formatting"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDeadline overrides the overall request deadline.
func WithDeadline(deadline time.Duration) Option {
	return func(p *Pipeline) {
		if deadline > 0 {
			p.deadline = deadline
		}
	}
}

// WithAmbiguityMargin overrides the runner-up score fraction that triggers
// an ambiguous outcome.
func WithAmbiguityMargin(margin float64) Option {
	return func(p *Pipeline) {
		if margin > 0 && margin <= 1 {
			p.margin = margin
		}
	}
}

// WithTTLPolicy overrides the cache freshness windows.
func WithTTLPolicy(policy pricecache.TTLPolicy) Option {
	return func(p *Pipeline) {
		p.ttl = policy
	}
}

// WithMetrics attaches pipeline instruments.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// Pipeline drives the identification-and-aggregation flow. Components are
// injected; the pipeline holds no global state beyond them.
type Pipeline struct {
	classifier classify.Classifier
	resolver   *resolver.Resolver
	cache      pricecache.Store
	aggregator *aggregate.Aggregator
	registry   *adapters.Registry
	ttl        pricecache.TTLPolicy
	deadline   time.Duration
	margin     float64
	metrics    *telemetry.Metrics
}

// New wires the pipeline's collaborators.
func New(classifier classify.Classifier, res *resolver.Resolver, cache pricecache.Store,
	agg *aggregate.Aggregator, registry *adapters.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		resolver:   res,
		cache:      cache,
		aggregator: agg,
		registry:   registry,
		ttl:        pricecache.DefaultTTLPolicy(),
		deadline:   DefaultDeadline,
		margin:     DefaultAmbiguityMargin,
		metrics:    nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Handle prices one uploaded image. Every terminal outcome is encoded in the
// returned PricingResult: Success with a record, Ambiguous with ranked
// candidates, or Failure with a taxonomy kind. The overall deadline cancels
// any still-pending provider calls; once it expires no cache write occurs.
func (p *Pipeline) Handle(ctx context.Context, image []byte) schema.PricingResult {
	requestID := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	log := observability.Log()

	p.logStage(requestID, StageClassifying)
	labels, err := p.classifier.Classify(ctx, image)
	if err != nil {
		return p.failure(ctx, requestID, err)
	}

	p.logStage(requestID, StageResolving)
	candidates, err := p.resolver.Resolve(labels)
	if err != nil {
		return p.failure(ctx, requestID, err)
	}
	if p.isAmbiguous(candidates) {
		p.metrics.RecordOutcome(ctx, string(schema.OutcomeAmbiguous))
		return schema.PricingResult{
			RequestID:  requestID,
			Outcome:    schema.OutcomeAmbiguous,
			Identity:   nil,
			Record:     nil,
			Candidates: candidates,
			Failure:    nil,
		}
	}
	identity := candidates[0].Identity

	p.logStage(requestID, StageCacheCheck)
	cached, err := p.cache.Get(ctx, identity)
	if err == nil {
		p.metrics.RecordCacheLookup(ctx, true)
		return p.success(ctx, requestID, identity, cached)
	}
	if !pricecache.IsMiss(err) {
		log.Error("cache lookup failed",
			observability.Field{Key: "request_id", Value: requestID},
			observability.Field{Key: "error", Value: err.Error()},
		)
	}
	p.metrics.RecordCacheLookup(ctx, false)

	p.logStage(requestID, StageAggregating)
	record, err := p.aggregator.Aggregate(ctx, identity, p.registry.All())
	if err != nil {
		return p.failure(ctx, requestID, err)
	}

	if ctx.Err() == nil {
		p.logStage(requestID, StageCachePut)
		if err := p.cache.Put(ctx, record, p.ttl.For(record)); err != nil {
			// A failed write only costs a future refetch.
			log.Error("cache write failed",
				observability.Field{Key: "request_id", Value: requestID},
				observability.Field{Key: "error", Value: err.Error()},
			)
		}
	}

	return p.success(ctx, requestID, identity, record)
}

// Invalidate drops the cached record for an identity, serving manual
// refresh requests from the transport.
func (p *Pipeline) Invalidate(ctx context.Context, identity schema.SneakerIdentity) error {
	return p.cache.Invalidate(ctx, identity)
}

// isAmbiguous applies the margin rule: the runner-up must both score close
// to the top candidate and resolve to a different identity.
func (p *Pipeline) isAmbiguous(candidates []schema.Candidate) bool {
	if len(candidates) < 2 {
		return false
	}
	top, next := candidates[0], candidates[1]
	if top.Identity.Equal(next.Identity) {
		return false
	}
	return next.Confidence >= p.margin*top.Confidence
}

func (p *Pipeline) success(ctx context.Context, requestID string, identity schema.SneakerIdentity, record schema.PriceRecord) schema.PricingResult {
	p.logStage(requestID, StageFormatting)
	p.metrics.RecordOutcome(ctx, string(schema.OutcomeSuccess))
	return schema.PricingResult{
		RequestID:  requestID,
		Outcome:    schema.OutcomeSuccess,
		Identity:   &identity,
		Record:     &record,
		Candidates: nil,
		Failure:    nil,
	}
}

func (p *Pipeline) failure(ctx context.Context, requestID string, err error) schema.PricingResult {
	kind := errs.CodeOf(err)
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		kind = errs.CodeTimeout
	}
	if kind == "" {
		kind = errs.CodeUnavailable
	}
	observability.Log().Info("pricing request failed",
		observability.Field{Key: "request_id", Value: requestID},
		observability.Field{Key: "kind", Value: string(kind)},
	)
	p.metrics.RecordOutcome(ctx, string(kind))
	return schema.PricingResult{
		RequestID:  requestID,
		Outcome:    schema.OutcomeFailure,
		Identity:   nil,
		Record:     nil,
		Candidates: nil,
		Failure:    &schema.Failure{Kind: kind, Message: err.Error()},
	}
}

func (p *Pipeline) logStage(requestID string, stage Stage) {
	observability.Log().Debug("pipeline stage",
		observability.Field{Key: "request_id", Value: requestID},
		observability.Field{Key: "stage", Value: string(stage)},
	)
}
