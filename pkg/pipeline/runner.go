package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evsingleline/singleline/pkg/cache"
	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/diagram"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	surveyio "github.com/evsingleline/singleline/pkg/io"
	"github.com/evsingleline/singleline/pkg/observability"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching lives in one place.
//
// The Runner holds no per-run state; multiple goroutines can share one
// Runner with different snapshots and options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the report and layout expiry when nonzero.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Hash returns the cache hash of s.
func Hash(s survey.Survey) (string, error) {
	data, err := surveyio.Marshal(s)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// Execute runs validate → analyze → layout → render on s.
func (r *Runner) Execute(ctx context.Context, s survey.Survey, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidSnapshot, err, "invalid snapshot")
	}
	hash, err := Hash(s)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "hash snapshot")
	}

	result := &Result{Survey: s, Hash: hash}
	result.Stats.Panels = len(s.Panels)
	result.Stats.Breakers = len(s.Breakers())

	// Stage 1: Analyze
	start := time.Now()
	rep, hit, err := r.analyze(ctx, s, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Report = rep
	result.Stats.AnalyzeTime = time.Since(start)
	result.Stats.Findings = len(rep.Findings)
	result.CacheInfo.AnalyzeHit = hit

	r.Logger.Info("analyzed survey",
		"panels", result.Stats.Panels,
		"findings", result.Stats.Findings,
		"cached", hit,
		"duration", result.Stats.AnalyzeTime)

	// Stage 2: Layout
	start = time.Now()
	layout, hit, err := r.layout(ctx, s, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Nodes = len(layout.Nodes)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"nodes", result.Stats.Nodes,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, hit, err := r.render(ctx, Inputs{Survey: s, Report: rep, Layout: layout}, hash, opts)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeRender, err, "render")
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// AnalyzeWithCacheInfo validates s and returns its compliance report and
// whether it came from the cache.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, s survey.Survey, opts Options) (compliance.Report, bool, error) {
	hash, err := r.prepare(s, &opts)
	if err != nil {
		return compliance.Report{}, false, err
	}
	return r.analyze(ctx, s, hash, opts)
}

// Analyze is AnalyzeWithCacheInfo without the cache hit.
func (r *Runner) Analyze(ctx context.Context, s survey.Survey, opts Options) (compliance.Report, error) {
	rep, _, err := r.AnalyzeWithCacheInfo(ctx, s, opts)
	return rep, err
}

// LayoutWithCacheInfo validates s and returns its one-line layout and
// whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, s survey.Survey, opts Options) (diagram.Layout, bool, error) {
	hash, err := r.prepare(s, &opts)
	if err != nil {
		return diagram.Layout{}, false, err
	}
	return r.layout(ctx, s, hash, opts)
}

// Layout is LayoutWithCacheInfo without the cache hit.
func (r *Runner) Layout(ctx context.Context, s survey.Survey, opts Options) (diagram.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, s, opts)
	return l, err
}

// RenderWithCacheInfo renders opts.Formats for s. The bool reports whether
// every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s survey.Survey, opts Options) (map[string][]byte, bool, error) {
	hash, err := r.prepare(s, &opts)
	if err != nil {
		return nil, false, err
	}
	rep, _, err := r.analyze(ctx, s, hash, opts)
	if err != nil {
		return nil, false, err
	}
	l, _, err := r.layout(ctx, s, hash, opts)
	if err != nil {
		return nil, false, err
	}
	artifacts, hit, err := r.render(ctx, Inputs{Survey: s, Report: rep, Layout: l}, hash, opts)
	if err != nil {
		return nil, false, perrors.Wrap(perrors.ErrCodeRender, err, "render")
	}
	return artifacts, hit, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) prepare(s survey.Survey, opts *Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	if err := s.Validate(); err != nil {
		return "", perrors.Wrap(perrors.ErrCodeInvalidSnapshot, err, "invalid snapshot")
	}
	hash, err := Hash(s)
	if err != nil {
		return "", perrors.Wrap(perrors.ErrCodeInternal, err, "hash snapshot")
	}
	return hash, nil
}

func (r *Runner) analyze(ctx context.Context, s survey.Survey, hash string, opts Options) (compliance.Report, bool, error) {
	key := r.Keyer.ReportKey(hash)
	if !opts.Refresh {
		var cached compliance.Report
		if r.lookup(ctx, key, "report", &cached) {
			return cached, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, len(s.Panels))
	start := time.Now()
	rep := compliance.Analyze(s)
	hooks.OnAnalyzeComplete(ctx, len(rep.Findings), time.Since(start), nil)

	r.store(ctx, key, "report", rep, r.ttl(cache.ReportTTL))
	return rep, false, nil
}

func (r *Runner) layout(ctx context.Context, s survey.Survey, hash string, opts Options) (diagram.Layout, bool, error) {
	key := r.Keyer.LayoutKey(hash)
	if !opts.Refresh {
		var cached diagram.Layout
		if r.lookup(ctx, key, "layout", &cached) {
			return cached, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(s.Panels))
	start := time.Now()
	l := diagram.Build(s)
	hooks.OnLayoutComplete(ctx, len(l.Nodes), time.Since(start), nil)

	r.store(ctx, key, "layout", l, r.ttl(cache.LayoutTTL))
	return l, false, nil
}

func (r *Runner) render(ctx context.Context, in Inputs, hash string, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, f := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
			if data, ok := r.get(ctx, key, "artifact"); ok {
				artifacts[f] = data
				continue
			}
		}
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	sub := opts
	sub.Formats = missing
	rendered, err := RenderAll(ctx, in, sub)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for f, data := range rendered {
		artifacts[f] = data
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache write failed", "format", f, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// get reads key and reports hits and misses. Cache errors count as misses.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, err := cache.Lookup(ctx, r.Cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.Logger.Warn("cache read failed", "key", key, "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// lookup decodes a cached JSON value into v. An entry that no longer
// decodes is treated as a miss and recomputed.
func (r *Runner) lookup(ctx context.Context, key, keyType string, v any) bool {
	data, ok := r.get(ctx, key, keyType)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.Logger.Debug("discarding stale cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Runner) store(ctx context.Context, key, keyType string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
