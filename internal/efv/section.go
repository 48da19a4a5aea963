// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package efv

import "strings"

// Rating reports use a recurring set of section headings, but individual
// agencies and report vintages vary the wording. sectionAliases maps alias
// keywords (lowercased) to the canonical section name so "debt and liquidity"
// and "liquidity and debt structure" resolve to the same partition.
var sectionAliases = map[string]string{
	"summary":                    "summary",
	"overview":                   "summary",
	"executive summary":          "summary",
	"rating action":              "rating action",
	"rating rationale":           "rating rationale",
	"rationale":                  "rating rationale",
	"key rating drivers":         "key rating drivers",
	"key rating driver":          "key rating drivers",
	"principal driver":           "key rating drivers",
	"rating sensitivities":       "rating sensitivities",
	"rating sensitivity":         "rating sensitivities",
	"sensitivities":              "rating sensitivities",
	"outlook":                    "outlook",
	"derivation summary":         "derivation summary",
	"issuer profile":             "issuer profile",
	"company profile":            "issuer profile",
	"liquidity and debt structure": "liquidity and debt structure",
	"debt and liquidity":           "liquidity and debt structure",
	"esg considerations":           "esg considerations",
	"esg consideration":            "esg considerations",
	"applicable criteria":          "applicable criteria",
	"relevant criteria":            "applicable criteria",
	"instrument ratings":           "instrument ratings",
	"issue ratings":                "instrument ratings",
	"issue rating":                 "instrument ratings",
	"ratings":                      "ratings",
}

// CanonicalSection resolves a section heading to its canonical name.
// Unknown headings are returned lowercased and trimmed, so sections outside
// the known canon still partition consistently.
func CanonicalSection(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := sectionAliases[key]; ok {
		return canon
	}
	return key
}
