package domain

import (
	"fmt"
	"strings"
)

// Scheme represents a catalog record (one fund identifier)
type Scheme struct {
	Code                 string
	Name                 string
	IsDirect             bool // Sold without intermediary commission
	IsGrowth             bool // Gains compound instead of being paid out
	IsIncomeDistribution bool // IDCW / dividend payout variant
}

// NewScheme builds a catalog record and derives its attribute flags from the name.
// Matching is case-sensitive.
func NewScheme(code, name string) Scheme {
	return Scheme{
		Code:                 code,
		Name:                 name,
		IsDirect:             strings.Contains(name, "Direct"),
		IsGrowth:             strings.Contains(name, "Growth"),
		IsIncomeDistribution: strings.Contains(name, "IDCW") || strings.Contains(name, "Dividend"),
	}
}

// HasFlags reports whether any attribute flag is set
func (s Scheme) HasFlags() bool {
	return s.IsDirect || s.IsGrowth || s.IsIncomeDistribution
}

// SchemeSummary is the (code, name) pair returned by the catalog source and by search
type SchemeSummary struct {
	Code string
	Name string
}

// SearchFilter narrows a catalog search
type SearchFilter string

const (
	FilterNone         SearchFilter = ""
	FilterDirectGrowth SearchFilter = "direct-growth" // is_direct AND is_growth
	FilterRegular      SearchFilter = "regular"       // NOT is_direct
)

// ParseSearchFilter accepts the canonical tokens plus the spellings used by the web client
// ("Direct Growth", "Regular"), case-insensitively.
func ParseSearchFilter(s string) (SearchFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "all":
		return FilterNone, nil
	case "direct-growth", "direct growth", "direct_growth":
		return FilterDirectGrowth, nil
	case "regular":
		return FilterRegular, nil
	default:
		return FilterNone, fmt.Errorf("%w: invalid search filter %q", ErrValidation, s)
	}
}

// CatalogState summarizes the stored catalog for staleness checks
type CatalogState struct {
	Rows              int // Total records
	FlaggedRows       int // Records with at least one attribute flag set
	ClassifierVersion int // Version of the name classifier that produced the flags (0 if never stamped)
}
