// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package ingest

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rvense/efvcompass/internal/validation"
)

// Candidate is one extracted EFV candidate as emitted by the extraction
// pipeline, before identity assignment. Extraction output is untrusted;
// every candidate is validated before it touches the corpus.
type Candidate struct {
	Kind       string `json:"kind" validate:"required,efvkind"`
	Company    string `json:"company" validate:"required"`
	ReportID   uint64 `json:"report_id" validate:"required"`
	Section    string `json:"section" validate:"required"`
	Sentence   string `json:"sentence" validate:"required"`
	Text       string `json:"text" validate:"required"`
	ReportYear int    `json:"report_year" validate:"reportyear"`
}

// Serializer handles candidate encoding for bus messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates and encodes a candidate.
func (s *Serializer) Marshal(c *Candidate) ([]byte, error) {
	if err := validation.ValidateStruct(c); err != nil {
		return nil, fmt.Errorf("validate candidate: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates a candidate.
func (s *Serializer) Unmarshal(data []byte) (*Candidate, error) {
	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal candidate: %w", err)
	}
	if err := validation.ValidateStruct(&c); err != nil {
		return nil, fmt.Errorf("validate candidate: %w", err)
	}
	return &c, nil
}
