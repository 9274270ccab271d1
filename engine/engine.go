// Package engine is the table-facing facade tying the frozen columnar
// pipeline together: a caller builds an Engine once over a chunkstore.Table,
// then calls Query with a logical plan from either frontend/sql or
// frontend/expr. Query implements spec.md §2's data flow exactly:
// cache-lookup, optimize-on-miss-and-insert, physical-plan, execute.
package engine

import (
	"context"
	"time"

	"qcore/chunkstore"
	"qcore/config"
	"qcore/exec"
	"qcore/internal/rowbind"
	"qcore/optimize"
	"qcore/physical"
	"qcore/plan"
	"qcore/plancache"
	"qcore/telemetry"
	"qcore/zonemap"
)

// Engine owns the frozen table, its zone-map index, the plan cache, and the
// ambient config/logger/metrics every query runs against. An Engine is safe
// for concurrent Query calls: Table and the zone index are read-only once
// built, and Cache/Executor are internally synchronized.
type Engine struct {
	Table   *chunkstore.Table
	Zones   *zonemap.Index
	Cache   *plancache.Cache
	Config  config.Config
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics

	executor *exec.Executor
	planner  *physical.Planner
}

// New builds an Engine over table, constructing its zone-map index and plan
// cache from cfg. logger/metrics may be nil; New substitutes a no-op logger
// the same way exec.New does, and leaves metrics nil (every telemetry.Metrics
// method is nil-receiver-safe).
func New(table *chunkstore.Table, cfg config.Config, logger *telemetry.Logger, metrics *telemetry.Metrics) *Engine {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	var zones *zonemap.Index
	if cfg.EnableZoneMaps {
		opts := zonemap.DefaultBuildOptions()
		opts.EnableBloomFilters = cfg.EnableBloomFilters
		opts.BloomCardinalityLimit = cfg.BloomCardinalityLimit
		zones = zonemap.Build(table, opts)
	}
	return &Engine{
		Table:    table,
		Zones:    zones,
		Cache:    plancache.New(cfg.PlanCacheCapacity),
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		executor: exec.New(table, zones, cfg, logger, metrics),
		planner:  physical.NewPlanner(cfg),
	}
}

// Query runs a logical plan to completion: look up its fingerprint in the
// plan cache, optimize and cache it on a miss, lower the optimized plan to
// a physical operator tree sized against the table's actual row/chunk
// counts, and execute it. ctx is threaded through to the executor so a
// caller can cancel a long-running scan; the front-end parse/bind step
// that produced node is not itself cancellable (it does no I/O).
func (e *Engine) Query(ctx context.Context, node plan.Node) (*exec.Result, error) {
	start := time.Now()
	defer func() { e.Metrics.ObserveQueryDuration(time.Since(start).Seconds()) }()

	op, err := e.plan(node)
	if err != nil {
		return nil, err
	}
	return e.executor.Run(ctx, op)
}

// Any reports whether node admits at least one row, using the executor's
// streaming short-circuit evaluator (spec.md §4.5) instead of materializing
// a full Result — the ANY(...) / EXISTS-style collaborator entry point.
func (e *Engine) Any(ctx context.Context, node plan.Node) (bool, error) {
	start := time.Now()
	defer func() { e.Metrics.ObserveQueryDuration(time.Since(start).Seconds()) }()

	op, err := e.plan(node)
	if err != nil {
		return false, err
	}
	return e.executor.Any(ctx, op)
}

// First returns node's first surviving row in table order without
// materializing the rest of the table, via the same short-circuit path
// Any uses.
func (e *Engine) First(ctx context.Context, node plan.Node) (rowbind.Row, bool, error) {
	start := time.Now()
	defer func() { e.Metrics.ObserveQueryDuration(time.Since(start).Seconds()) }()

	op, err := e.plan(node)
	if err != nil {
		return rowbind.Row{}, false, err
	}
	return e.executor.First(ctx, op)
}

// plan resolves node to a physical operator tree via the fingerprint ->
// cache-lookup -> optimize-on-miss -> physical-plan pipeline spec.md §2
// describes, shared by Query/Any/First so all three agree on one cached
// optimized plan per fingerprint.
func (e *Engine) plan(node plan.Node) (*physical.Op, error) {
	fingerprint := plan.Fingerprint(node)

	optimized, ok := e.Cache.Get(fingerprint)
	if !ok {
		var err error
		optimized, err = optimize.Optimize(node)
		if err != nil {
			return nil, err
		}
		e.Cache.Put(fingerprint, optimized)
		e.Metrics.PlanCacheMiss()
	} else {
		e.Metrics.PlanCacheHit()
	}

	return e.planner.Plan(optimized, e.Table.NumRows(), e.Table.ChunkCount()), nil
}
