// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package efv

import (
	"fmt"
	"strings"
)

// Kind classifies an extracted item as an event, factor, or variable.
// It is a closed enum: ranking and aggregation logic switches over it
// exhaustively, and Kinds enumerates every valid value.
type Kind int

const (
	// KindEvent is a realized, dated occurrence that shifts credit risk.
	KindEvent Kind = iota
	// KindFactor is a reusable credit consideration (e.g. refinancing risk).
	KindFactor
	// KindVariable is an observable, measurable quantity with units/periods.
	KindVariable
)

// Kinds lists every valid Kind in declaration order.
var Kinds = [...]Kind{KindEvent, KindFactor, KindVariable}

// String returns the lowercase wire name for the kind.
func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindFactor:
		return "factor"
	case KindVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the three declared kinds.
func (k Kind) Valid() bool {
	return k >= KindEvent && k <= KindVariable
}

// ParseKind parses a wire name ("event", "factor", "variable") into a Kind.
// Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "event":
		return KindEvent, nil
	case "factor":
		return KindFactor, nil
	case "variable":
		return KindVariable, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

// MarshalJSON encodes the kind as its string wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes a string wire name into a Kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
