// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/efv"
	"github.com/rvense/efvcompass/internal/relation"
	"github.com/rvense/efvcompass/internal/scoring"
)

// Engine fuses corpus retrieval and relevance scoring into ranked
// recommendation lists. It is safe for concurrent use.
type Engine struct {
	config Config
	idx    *corpus.Index
	scorer *scoring.Scorer
	logger zerolog.Logger

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// NewEngine creates an engine over the given index and scorer.
func NewEngine(cfg Config, idx *corpus.Index, scorer *scoring.Scorer, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if idx == nil || scorer == nil {
		return nil, fmt.Errorf("engine requires an index and a scorer")
	}
	return &Engine{
		config: cfg,
		idx:    idx,
		scorer: scorer,
		logger: logger.With().Str("component", "recommend").Logger(),
		cache:  make(map[string]cacheEntry),
	}, nil
}

// scoredEntry pairs a corpus entry with its request-scoped relevance.
type scoredEntry struct {
	entry corpus.Entry

	// score is the maximum over the entry's occurrence scores.
	score float64

	// year is the most recent occurrence year, used for tie-breaks.
	year int
}

// Recommend produces the company, global, and hybrid rankings for one
// request. Validation failures are rejected before any corpus access.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if err := req.validate(); err != nil {
		return nil, err
	}
	e.applyDefaults(&req)

	logger := e.logger.With().
		Str("request_id", uuid.NewString()).
		Str("company", req.Company).
		Str("target_section", req.TargetSection).
		Logger()

	if cached := e.checkCache(req.cacheKey()); cached != nil {
		e.cacheHits.Add(1)
		cached.Took = time.Since(start)
		cached.CacheHit = true
		logger.Debug().Msg("cache hit")
		return cached, nil
	}
	e.cacheMisses.Add(1)

	queryContext := e.idx.SectionText(req.Company, req.TargetSection)
	referenceYear := req.YearMax
	if referenceYear == 0 {
		referenceYear = e.idx.MaxYear()
	}
	query := scoring.Query{Context: queryContext, ReferenceYear: referenceYear}

	companyEntries := e.idx.Query(corpus.Filter{
		Company:     req.Company,
		YearMin:     req.YearMin,
		YearMax:     req.YearMax,
		ReportLimit: req.ReportLimit,
	})
	globalEntries := e.idx.Query(corpus.Filter{
		YearMin:     req.YearMin,
		YearMax:     req.YearMax,
		ReportLimit: req.ReportLimit,
	})

	// The two pools are read-only snapshots, so scoring them in parallel
	// needs no coordination beyond the join.
	var (
		wg            sync.WaitGroup
		companyScored []scoredEntry
		globalScored  []scoredEntry
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		companyScored = e.scoreEntries(companyEntries, query)
	}()
	go func() {
		defer wg.Done()
		globalScored = e.scoreEntries(globalEntries, query)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.applyLinkBonus(companyScored, queryContext)

	globalAgg := aggregateGlobal(globalScored)

	result := &Result{
		RequestID:      uuid.NewString(),
		Company:        req.Company,
		ReferenceYear:  referenceYear,
		CompanyRanking: e.rankCompany(companyScored, req),
		GlobalRanking:  e.rankGlobal(globalAgg, req),
		HybridRanking:  e.rankHybrid(companyScored, globalAgg, req),
		Took:           time.Since(start),
	}

	e.storeCache(req.cacheKey(), result)

	logger.Debug().
		Int("company_pool", len(companyScored)).
		Int("global_pool", len(globalScored)).
		Int("reference_year", referenceYear).
		Dur("took", result.Took).
		Msg("recommendation served")
	return result, nil
}

// applyDefaults fills unset top-K values and caps all of them.
func (e *Engine) applyDefaults(req *Request) {
	if req.KEvent == 0 {
		req.KEvent = e.config.DefaultKEvent
	}
	if req.KFactor == 0 {
		req.KFactor = e.config.DefaultKFactor
	}
	if req.KVariable == 0 {
		req.KVariable = e.config.DefaultKVariable
	}
	if req.KEvent > e.config.MaxK {
		req.KEvent = e.config.MaxK
	}
	if req.KFactor > e.config.MaxK {
		req.KFactor = e.config.MaxK
	}
	if req.KVariable > e.config.MaxK {
		req.KVariable = e.config.MaxK
	}
}

func (r *Request) kFor(k efv.Kind) int {
	switch k {
	case efv.KindEvent:
		return r.KEvent
	case efv.KindFactor:
		return r.KFactor
	case efv.KindVariable:
		return r.KVariable
	default:
		return 0
	}
}

// scoreEntries scores each entry as the maximum over its occurrences.
func (e *Engine) scoreEntries(entries []corpus.Entry, q scoring.Query) []scoredEntry {
	scored := make([]scoredEntry, 0, len(entries))
	for _, entry := range entries {
		best := 0.0
		year := 0
		for _, occ := range entry.Occurrences {
			s := e.scorer.Score(scoring.Candidate{
				Sentence:   occ.Sentence,
				ReportYear: occ.ReportYear,
			}, q)
			if s > best {
				best = s
			}
			if occ.ReportYear > year {
				year = occ.ReportYear
			}
		}
		scored = append(scored, scoredEntry{entry: entry, score: best, year: year})
	}
	return scored
}

// applyLinkBonus raises company event scores when the query context links
// them to factors or variables in the same or an adjacent sentence.
func (e *Engine) applyLinkBonus(companyScored []scoredEntry, queryContext string) {
	if e.config.LinkBonusWeight == 0 || queryContext == "" {
		return
	}

	events := make(map[uint64]string)
	factors := make(map[uint64]string)
	variables := make(map[uint64]string)
	for _, s := range companyScored {
		evidence := linkEvidence(s.entry)
		switch s.entry.Kind {
		case efv.KindEvent:
			events[s.entry.ID] = evidence
		case efv.KindFactor:
			factors[s.entry.ID] = evidence
		case efv.KindVariable:
			variables[s.entry.ID] = evidence
		}
	}
	if len(events) == 0 || (len(factors) == 0 && len(variables) == 0) {
		return
	}

	links := relation.Link(queryContext, events, factors, variables)
	counts := links.EventLinkCounts()
	for i := range companyScored {
		s := &companyScored[i]
		if s.entry.Kind != efv.KindEvent {
			continue
		}
		c, ok := counts[s.entry.ID]
		if !ok {
			continue
		}
		linked := 0.0
		if c.Factors > 0 {
			linked += 0.5
		}
		if c.Variables > 0 {
			linked += 0.5
		}
		s.score += e.config.LinkBonusWeight * linked
	}
}

// linkEvidence picks the text to locate in the query context. Occurrence
// sentences are verbatim report text and anchor reliably; the item's display
// text is a summary and only matches when it appears word for word.
func linkEvidence(entry corpus.Entry) string {
	for _, occ := range entry.Occurrences {
		if occ.Sentence != "" {
			return occ.Sentence
		}
	}
	return entry.Text
}

// globalAggregate is one industry-wide logical item after cross-company
// frequency aggregation.
type globalAggregate struct {
	rep   corpus.Entry
	score float64
	year  int
	count int
}

// aggregateGlobal merges global-pool entries that share an aggregation key.
// The aggregated score rewards repeated independent mentions: the maximum
// occurrence score scaled by log(1 + occurrence count).
func aggregateGlobal(scored []scoredEntry) map[string]*globalAggregate {
	agg := make(map[string]*globalAggregate)
	for _, s := range scored {
		key := s.entry.AggregationKey()
		g, ok := agg[key]
		if !ok {
			agg[key] = &globalAggregate{
				rep:   s.entry,
				score: s.score,
				year:  s.year,
				count: len(s.entry.Occurrences),
			}
			continue
		}
		if s.score > g.score {
			g.score = s.score
		}
		if s.year > g.year {
			g.year = s.year
		}
		if s.entry.ID < g.rep.ID {
			g.rep = s.entry
		}
		g.count += len(s.entry.Occurrences)
	}
	for _, g := range agg {
		g.score *= math.Log1p(float64(g.count))
	}
	return agg
}

func (e *Engine) rankCompany(scored []scoredEntry, req Request) Ranking {
	var ranking Ranking
	for _, kind := range efv.Kinds {
		var items []RankedItem
		for _, s := range scored {
			if s.entry.Kind != kind {
				continue
			}
			items = append(items, rankedFromEntry(s.entry, s.score, s.year, len(s.entry.Occurrences)))
		}
		ranking.set(kind, truncate(sortRanked(items), req.kFor(kind)))
	}
	return ranking
}

func (e *Engine) rankGlobal(agg map[string]*globalAggregate, req Request) Ranking {
	var ranking Ranking
	for _, kind := range efv.Kinds {
		var items []RankedItem
		for _, g := range agg {
			if g.rep.Kind != kind {
				continue
			}
			items = append(items, rankedFromEntry(g.rep, g.score, g.year, g.count))
		}
		ranking.set(kind, truncate(sortRanked(items), req.kFor(kind)))
	}
	return ranking
}

// rankHybrid fuses the two pools. Items present in both use the alpha-weighted
// sum; single-pool items keep their score scaled by the absence penalty.
func (e *Engine) rankHybrid(companyScored []scoredEntry, agg map[string]*globalAggregate, req Request) Ranking {
	companyByKey := make(map[string]scoredEntry, len(companyScored))
	for _, s := range companyScored {
		companyByKey[s.entry.AggregationKey()] = s
	}

	type fused struct {
		rep   corpus.Entry
		score float64
		year  int
		count int
	}
	fusedByKey := make(map[string]fused, len(agg)+len(companyByKey))

	for key, g := range agg {
		if c, ok := companyByKey[key]; ok {
			year := c.year
			if g.year > year {
				year = g.year
			}
			fusedByKey[key] = fused{
				rep:   c.entry,
				score: e.config.Alpha*c.score + (1-e.config.Alpha)*g.score,
				year:  year,
				count: g.count,
			}
			continue
		}
		fusedByKey[key] = fused{
			rep:   g.rep,
			score: g.score * e.config.AbsencePenalty,
			year:  g.year,
			count: g.count,
		}
	}
	// The company pool is a subset of the global pool, so company-only keys
	// appear only when year or report filters diverge between the two pools.
	for key, c := range companyByKey {
		if _, ok := fusedByKey[key]; ok {
			continue
		}
		fusedByKey[key] = fused{
			rep:   c.entry,
			score: c.score * e.config.AbsencePenalty,
			year:  c.year,
			count: len(c.entry.Occurrences),
		}
	}

	var ranking Ranking
	for _, kind := range efv.Kinds {
		var items []RankedItem
		for _, f := range fusedByKey {
			if f.rep.Kind != kind {
				continue
			}
			items = append(items, rankedFromEntry(f.rep, f.score, f.year, f.count))
		}
		ranking.set(kind, truncate(sortRanked(items), req.kFor(kind)))
	}
	return ranking
}

func rankedFromEntry(entry corpus.Entry, score float64, year, count int) RankedItem {
	return RankedItem{
		ItemID:      entry.ID,
		Kind:        entry.Kind,
		Text:        entry.Text,
		CompanyID:   entry.CompanyID,
		ReportYear:  year,
		Score:       score,
		Occurrences: count,
	}
}

// sortRanked orders by score descending, report year descending, then item
// ID ascending as the stable final tie-break.
func sortRanked(items []RankedItem) []RankedItem {
	sort.Slice(items, func(a, b int) bool {
		if items[a].Score != items[b].Score {
			return items[a].Score > items[b].Score
		}
		if items[a].ReportYear != items[b].ReportYear {
			return items[a].ReportYear > items[b].ReportYear
		}
		return items[a].ItemID < items[b].ItemID
	})
	return items
}

func truncate(items []RankedItem, k int) []RankedItem {
	if len(items) > k {
		items = items[:k]
	}
	return items
}

// Metrics is a point-in-time counter snapshot for observability.
type Metrics struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// Snapshot returns the engine's request counters.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
	}
}

// InvalidateCache drops all cached results. Ingestion calls this so new
// corpus state becomes visible immediately.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

// checkCache returns a copy of a live cached result, or nil.
func (e *Engine) checkCache(key string) *Result {
	if !e.config.Cache.Enabled {
		return nil
	}

	e.cacheMu.RLock()
	entry, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}

	// Shallow copy is enough: rankings are never mutated after creation.
	cp := *entry.result
	return &cp
}

func (e *Engine) storeCache(key string, result *Result) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	// Full cache drops expired entries before giving up on the insert.
	if len(e.cache) >= e.config.Cache.MaxEntries {
		now := time.Now()
		for k, entry := range e.cache {
			if now.After(entry.expiresAt) {
				delete(e.cache, k)
			}
		}
		if len(e.cache) >= e.config.Cache.MaxEntries {
			return
		}
	}
	e.cache[key] = cacheEntry{result: result, expiresAt: time.Now().Add(e.config.Cache.TTL)}
}
