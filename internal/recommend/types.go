// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package recommend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rvense/efvcompass/internal/efv"
)

// ErrInvalidRequest marks request validation failures. The engine rejects
// these before any corpus access and returns no partial result.
var ErrInvalidRequest = errors.New("invalid recommendation request")

// Request asks for ranked EFV recommendations for one company and section.
type Request struct {
	// Company is the rated company, matched case-insensitively. An unknown
	// company is valid and yields an empty company ranking.
	Company string `json:"company" validate:"required"`

	// TargetSection names the report section whose text forms the query
	// context. The company's own section text is used when present.
	TargetSection string `json:"target_section" validate:"required"`

	// KEvent, KFactor, KVariable bound each ranking's length per kind.
	// Zero selects the configured default.
	KEvent    int `json:"k_event" validate:"gte=0"`
	KFactor   int `json:"k_factor" validate:"gte=0"`
	KVariable int `json:"k_variable" validate:"gte=0"`

	// YearMin and YearMax optionally bound source report years, inclusive.
	YearMin int `json:"year_min,omitempty"`
	YearMax int `json:"year_max,omitempty"`

	// ReportLimit optionally restricts scope to the N most recent reports.
	ReportLimit int `json:"report_limit,omitempty" validate:"gte=0"`
}

func (r *Request) validate() error {
	if strings.TrimSpace(r.Company) == "" {
		return fmt.Errorf("%w: empty company", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.TargetSection) == "" {
		return fmt.Errorf("%w: empty target section", ErrInvalidRequest)
	}
	if r.KEvent < 0 || r.KFactor < 0 || r.KVariable < 0 {
		return fmt.Errorf("%w: negative top-K", ErrInvalidRequest)
	}
	if r.YearMin != 0 && r.YearMax != 0 && r.YearMin > r.YearMax {
		return fmt.Errorf("%w: year_min %d > year_max %d", ErrInvalidRequest, r.YearMin, r.YearMax)
	}
	if r.ReportLimit < 0 {
		return fmt.Errorf("%w: negative report limit", ErrInvalidRequest)
	}
	return nil
}

// cacheKey is the request fingerprint after defaults are applied.
func (r *Request) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%d|%d|%d|%d|%d",
		strings.ToLower(r.Company), strings.ToLower(r.TargetSection),
		r.KEvent, r.KFactor, r.KVariable, r.YearMin, r.YearMax, r.ReportLimit)
}

// RankedItem is one entry of a ranking, serializable for the caller.
type RankedItem struct {
	ItemID      uint64   `json:"item_id"`
	Kind        efv.Kind `json:"kind"`
	Text        string   `json:"text"`
	CompanyID   string   `json:"company_id"`
	ReportYear  int      `json:"report_year"`
	Score       float64  `json:"score"`
	Occurrences int      `json:"occurrences"`
}

// Ranking holds the per-kind ordered lists of one ranking type.
type Ranking struct {
	Events    []RankedItem `json:"events"`
	Factors   []RankedItem `json:"factors"`
	Variables []RankedItem `json:"variables"`
}

// ForKind returns the list for the given kind.
func (r *Ranking) ForKind(k efv.Kind) []RankedItem {
	switch k {
	case efv.KindEvent:
		return r.Events
	case efv.KindFactor:
		return r.Factors
	case efv.KindVariable:
		return r.Variables
	default:
		return nil
	}
}

func (r *Ranking) set(k efv.Kind, items []RankedItem) {
	switch k {
	case efv.KindEvent:
		r.Events = items
	case efv.KindFactor:
		r.Factors = items
	case efv.KindVariable:
		r.Variables = items
	}
}

// Result is the engine's answer: three parallel rankings plus request
// metadata for the caller.
type Result struct {
	RequestID string `json:"request_id"`
	Company   string `json:"company"`

	// ReferenceYear is the year recency decay was measured against.
	ReferenceYear int `json:"reference_year"`

	CompanyRanking Ranking `json:"company_ranking"`
	GlobalRanking  Ranking `json:"global_ranking"`
	HybridRanking  Ranking `json:"hybrid_ranking"`

	CacheHit bool          `json:"cache_hit"`
	Took     time.Duration `json:"took_ns"`
}
