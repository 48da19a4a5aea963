// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package corpus

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rvense/efvcompass/internal/efv"
)

// Occurrence is one appearance of a logical item in one report. Re-ingesting
// an item for the same (logical item, report) pair replaces the occurrence
// rather than adding a second one.
type Occurrence struct {
	ItemID      uint64    `json:"item_id"`
	ReportID    uint64    `json:"report_id"`
	ReportYear  int       `json:"report_year"`
	Section     string    `json:"section"`
	Sentence    string    `json:"sentence"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// logicalItem is the merged form of all items sharing a dedup key.
type logicalItem struct {
	kind           efv.Kind
	companyID      string
	normalizedText string

	// repID is the smallest item ID ever merged in. It is the stable
	// identifier the engine reports for this logical item.
	repID uint64

	// text comes from the occurrence with the highest report year, falling
	// back to the smallest item ID on ties.
	text     string
	textYear int
	textID   uint64

	// occurrences keyed by report ID for idempotent re-ingestion.
	occurrences map[uint64]Occurrence
}

// Entry is a read-only snapshot of a logical item as returned by Query.
type Entry struct {
	// ID is the representative item ID: the smallest ID among all merged
	// occurrences, stable across re-ingestion order.
	ID             uint64
	Kind           efv.Kind
	CompanyID      string
	Text           string
	NormalizedText string

	// Occurrences surviving the query filter, newest report first.
	Occurrences []Occurrence
}

// AggregationKey joins company-scoped and global rankings. It ignores the
// company so that the same normalized text accumulates frequency across
// every rated company in the corpus.
func (e *Entry) AggregationKey() string {
	return e.Kind.String() + "\x1f" + e.NormalizedText
}

// Filter restricts a corpus query. Zero values mean unrestricted.
type Filter struct {
	// Company restricts to items extracted from this company's reports,
	// matched case-insensitively. Empty means all companies.
	Company string

	// Kind restricts to logical items of one kind. Nil means all kinds;
	// the zero Kind is a valid value so a pointer carries the distinction.
	Kind *efv.Kind

	// YearMin and YearMax bound the occurrence report year, inclusive.
	// Zero means unbounded on that side.
	YearMin int
	YearMax int

	// ReportLimit keeps only occurrences from the N most recent reports in
	// scope, ordered by year descending then report ID descending. Zero
	// means all reports.
	ReportLimit int
}

// Stats summarizes index contents for the stats endpoint.
type Stats struct {
	Reports      int            `json:"reports"`
	Companies    int            `json:"companies"`
	LogicalItems int            `json:"logical_items"`
	Occurrences  int            `json:"occurrences"`
	ByKind       map[string]int `json:"by_kind"`
}

// Index is the in-memory corpus index. All methods are safe for concurrent
// use; reads take snapshots under a read lock so query results never alias
// internal state.
type Index struct {
	mu      sync.RWMutex
	logical map[string]*logicalItem
	reports map[uint64]*efv.Report

	// reportsByCompany maps lowercased company name to report IDs.
	reportsByCompany map[string][]uint64
}

// NewIndex returns an empty corpus index.
func NewIndex() *Index {
	return &Index{
		logical:          make(map[string]*logicalItem),
		reports:          make(map[uint64]*efv.Report),
		reportsByCompany: make(map[string][]uint64),
	}
}

// AddReport registers a source report. Re-adding the same report ID replaces
// the stored report. Section names are canonicalized so alias headings from
// different report vintages collapse to one section.
func (i *Index) AddReport(r *efv.Report) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("add report: %w", err)
	}

	stored := &efv.Report{
		ID:          r.ID,
		CompanyName: r.CompanyName,
		Year:        r.Year,
		Sections:    make(map[string]string, len(r.Sections)),
	}
	for name, text := range r.Sections {
		canonical := efv.CanonicalSection(name)
		if existing, ok := stored.Sections[canonical]; ok {
			stored.Sections[canonical] = existing + "\n" + text
			continue
		}
		stored.Sections[canonical] = text
	}

	company := strings.ToLower(r.CompanyName)

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, replaced := i.reports[r.ID]; !replaced {
		i.reportsByCompany[company] = append(i.reportsByCompany[company], r.ID)
	}
	i.reports[r.ID] = stored
	return nil
}

// Add merges an item into the index. Items sharing a dedup key collapse into
// one logical item; the representative ID is the smallest merged ID and the
// display text follows the most recent occurrence.
func (i *Index) Add(item *efv.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("add item: %w", err)
	}
	if item.ID == 0 {
		return fmt.Errorf("add item: missing generated ID")
	}

	key := item.DedupKey()
	occ := Occurrence{
		ItemID:      item.ID,
		ReportID:    item.SourceReportID,
		ReportYear:  item.ReportYear,
		Section:     efv.CanonicalSection(item.SourceSection),
		Sentence:    item.SourceSentence,
		ExtractedAt: item.ExtractedAt,
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	li, ok := i.logical[key]
	if !ok {
		i.logical[key] = &logicalItem{
			kind:           item.Kind,
			companyID:      item.CompanyID,
			normalizedText: item.NormalizedText,
			repID:          item.ID,
			text:           item.Text,
			textYear:       item.ReportYear,
			textID:         item.ID,
			occurrences:    map[uint64]Occurrence{occ.ReportID: occ},
		}
		return nil
	}

	if item.ID < li.repID {
		li.repID = item.ID
	}
	if item.ReportYear > li.textYear ||
		(item.ReportYear == li.textYear && item.ID < li.textID) {
		li.text = item.Text
		li.textYear = item.ReportYear
		li.textID = item.ID
	}
	li.occurrences[occ.ReportID] = occ
	return nil
}

// Report returns the registered report with the given ID, or nil.
func (i *Index) Report(id uint64) *efv.Report {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.reports[id]
}

// CompanyKnown reports whether any report for the company has been
// registered. Matching is case-insensitive.
func (i *Index) CompanyKnown(company string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.reportsByCompany[strings.ToLower(company)]) > 0
}

// SectionText returns the concatenated text of the named section across the
// company's reports, newest first. The name is canonicalized before lookup.
func (i *Index) SectionText(company, section string) string {
	canonical := efv.CanonicalSection(section)

	i.mu.RLock()
	defer i.mu.RUnlock()

	ids := i.reportsByCompany[strings.ToLower(company)]
	reports := make([]*efv.Report, 0, len(ids))
	for _, id := range ids {
		if r, ok := i.reports[id]; ok {
			reports = append(reports, r)
		}
	}
	sortReports(reports)

	var b strings.Builder
	for _, r := range reports {
		text, ok := r.Sections[canonical]
		if !ok || text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return b.String()
}

// MaxYear returns the most recent report year in the corpus, or 0 when no
// report has been registered.
func (i *Index) MaxYear() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	max := 0
	for _, r := range i.reports {
		if r.Year > max {
			max = r.Year
		}
	}
	return max
}

// Query returns a snapshot of every logical item with at least one occurrence
// surviving the filter. Entries are ordered by representative ID ascending so
// callers start from a deterministic sequence.
func (i *Index) Query(f Filter) []Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	allowed := i.reportScope(f)
	company := strings.ToLower(f.Company)

	var entries []Entry
	for _, li := range i.logical {
		if company != "" && strings.ToLower(li.companyID) != company {
			continue
		}
		if f.Kind != nil && li.kind != *f.Kind {
			continue
		}

		var occs []Occurrence
		for _, occ := range li.occurrences {
			if allowed != nil {
				if _, ok := allowed[occ.ReportID]; !ok {
					continue
				}
			}
			if f.YearMin != 0 && occ.ReportYear < f.YearMin {
				continue
			}
			if f.YearMax != 0 && occ.ReportYear > f.YearMax {
				continue
			}
			occs = append(occs, occ)
		}
		if len(occs) == 0 {
			continue
		}

		sort.Slice(occs, func(a, b int) bool {
			if occs[a].ReportYear != occs[b].ReportYear {
				return occs[a].ReportYear > occs[b].ReportYear
			}
			return occs[a].ItemID < occs[b].ItemID
		})

		entries = append(entries, Entry{
			ID:             li.repID,
			Kind:           li.kind,
			CompanyID:      li.companyID,
			Text:           li.text,
			NormalizedText: li.normalizedText,
			Occurrences:    occs,
		})
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].ID < entries[b].ID })
	return entries
}

// reportScope resolves the filter's report restriction to an allow-set of
// report IDs, or nil when every report is in scope. Caller holds mu.
func (i *Index) reportScope(f Filter) map[uint64]struct{} {
	if f.ReportLimit <= 0 {
		return nil
	}

	var scoped []*efv.Report
	if f.Company != "" {
		for _, id := range i.reportsByCompany[strings.ToLower(f.Company)] {
			if r, ok := i.reports[id]; ok {
				scoped = append(scoped, r)
			}
		}
	} else {
		for _, r := range i.reports {
			scoped = append(scoped, r)
		}
	}
	sortReports(scoped)

	if len(scoped) > f.ReportLimit {
		scoped = scoped[:f.ReportLimit]
	}
	allowed := make(map[uint64]struct{}, len(scoped))
	for _, r := range scoped {
		allowed[r.ID] = struct{}{}
	}
	return allowed
}

// Stats returns a summary of index contents.
func (i *Index) Stats() Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	s := Stats{
		Reports:   len(i.reports),
		Companies: len(i.reportsByCompany),
		ByKind:    make(map[string]int, len(efv.Kinds)),
	}
	for _, k := range efv.Kinds {
		s.ByKind[k.String()] = 0
	}
	for _, li := range i.logical {
		s.LogicalItems++
		s.Occurrences += len(li.occurrences)
		s.ByKind[li.kind.String()]++
	}
	return s
}

// sortReports orders newest first: year descending, then ID descending so
// the later-registered of two same-year reports wins scope ties.
func sortReports(reports []*efv.Report) {
	sort.Slice(reports, func(a, b int) bool {
		if reports[a].Year != reports[b].Year {
			return reports[a].Year > reports[b].Year
		}
		return reports[a].ID > reports[b].ID
	})
}
