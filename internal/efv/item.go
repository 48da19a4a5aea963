// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package efv

import (
	"fmt"
	"strings"
	"time"
)

// Item is a single extracted EFV item. Items are immutable after creation
// and owned by the corpus index once ingested.
type Item struct {
	// ID is the generator-assigned snowflake identifier. Unique across the
	// lifetime of the system and strictly increasing in assignment order.
	ID uint64 `json:"id"`

	// Kind classifies the item as event, factor, or variable.
	Kind Kind `json:"kind"`

	// CompanyID identifies the company the source report rates.
	CompanyID string `json:"company_id"`

	// SourceReportID is the report the item was extracted from.
	SourceReportID uint64 `json:"source_report_id"`

	// SourceSection is the report section the item was extracted from.
	SourceSection string `json:"source_section"`

	// SourceSentence is the verbatim evidence sentence from the report.
	SourceSentence string `json:"source_sentence"`

	// Text is the extracted item text: an event summary, factor label, or
	// variable name.
	Text string `json:"text"`

	// NormalizedText is the canonical form of Text used for deduplication.
	NormalizedText string `json:"normalized_text"`

	// ReportYear is the publication year of the source report.
	ReportYear int `json:"report_year"`

	// ExtractedAt is when the extraction pipeline produced the item.
	ExtractedAt time.Time `json:"extracted_at"`
}

// DedupKey returns the logical identity of the item. Two items with the same
// key are occurrences of the same logical item and are merged on ingestion.
func (i *Item) DedupKey() string {
	return i.Kind.String() + "\x1f" + strings.ToLower(i.CompanyID) + "\x1f" + i.NormalizedText
}

// Validate checks the fields the core requires before ingestion.
// Extraction output is untrusted input; nothing here assumes it is well formed.
func (i *Item) Validate() error {
	if !i.Kind.Valid() {
		return fmt.Errorf("item %d: invalid kind %d", i.ID, int(i.Kind))
	}
	if strings.TrimSpace(i.CompanyID) == "" {
		return fmt.Errorf("item %d: empty company id", i.ID)
	}
	if strings.TrimSpace(i.SourceSentence) == "" {
		return fmt.Errorf("item %d: empty source sentence", i.ID)
	}
	if strings.TrimSpace(i.Text) == "" {
		return fmt.Errorf("item %d: empty item text", i.ID)
	}
	if i.ReportYear < 1900 || i.ReportYear > 2200 {
		return fmt.Errorf("item %d: implausible report year %d", i.ID, i.ReportYear)
	}
	return nil
}

// Report is a structured credit report supplied by the external parsing
// pipeline. Read-only to the core; the index keeps section text so the
// engine can resolve a request's query context.
type Report struct {
	// ID is the generator-assigned report identifier.
	ID uint64 `json:"id"`

	// CompanyName is the rated company, matched case-insensitively.
	CompanyName string `json:"company_name"`

	// Year is the publication year.
	Year int `json:"year"`

	// Sections maps section name to full section text.
	Sections map[string]string `json:"sections"`
}

// Validate checks the fields the core requires before registration.
func (r *Report) Validate() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return fmt.Errorf("report %d: empty company name", r.ID)
	}
	if r.Year < 1900 || r.Year > 2200 {
		return fmt.Errorf("report %d: implausible year %d", r.ID, r.Year)
	}
	return nil
}
