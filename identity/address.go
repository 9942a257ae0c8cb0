package identity

import (
	"fmt"
	"regexp"
	"strings"

	"propwatch/models"
)

// Strategy selects how incoming listings are matched to tracked properties.
type Strategy string

const (
	// StrategyAddress matches on the canonicalized
	// (address_line, city, postal_code) triple only.
	StrategyAddress Strategy = "address"
	// StrategySource matches on (source_name, source_listing_id) first and
	// falls back to the address triple when the source link is unknown.
	StrategySource Strategy = "source"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAddress, StrategySource:
		return Strategy(s), nil
	case "":
		return StrategyAddress, nil
	}
	return "", fmt.Errorf("unknown identity strategy %q", s)
}

// Key is the canonicalized natural key for a property. Lookups always go
// through a Key so that casing and abbreviation drift across scrapes collapse
// onto one row.
type Key struct {
	AddressLine string
	City        string
	PostalCode  string
}

func KeyFor(l *models.NormalizedListing) Key {
	return Key{
		AddressLine: Canonical(l.AddressLine),
		City:        Canonical(l.City),
		PostalCode:  Canonical(l.PostalCode),
	}
}

func KeyForProperty(p *models.TrackedProperty) Key {
	return Key{
		AddressLine: Canonical(p.AddressLine),
		City:        Canonical(p.City),
		PostalCode:  Canonical(p.PostalCode),
	}
}

var abbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"drive":     "dr",
	"road":      "rd",
	"boulevard": "blvd",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"circle":    "cir",
	"crescent":  "cres",
	"terrace":   "ter",
	"highway":   "hwy",
	"parkway":   "pkwy",
	"square":    "sq",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
	"northeast": "ne",
	"northwest": "nw",
	"southeast": "se",
	"southwest": "sw",
	"apartment": "apt",
	"suite":     "ste",
	"floor":     "fl",
	"building":  "bldg",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// Canonical lowercases, strips punctuation, collapses whitespace, and rewrites
// common street-suffix and directional words to their abbreviations. Rewrites
// apply per token so "Western Ave" is not mangled.
func Canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if abbrev, ok := abbreviations[tok]; ok {
			tokens[i] = abbrev
		}
	}
	return strings.Join(tokens, " ")
}
