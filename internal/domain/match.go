package domain

import "strings"

// MarkerRange is a directional mile-marker span. Start and End may be in
// either order; all comparisons normalize first.
type MarkerRange struct {
	Start float64
	End   float64
}

// Normalized returns the range's bounds in absolute (min, max) order.
func (r MarkerRange) Normalized() (float64, float64) {
	if r.Start > r.End {
		return r.End, r.Start
	}
	return r.Start, r.End
}

// Contains reports whether a marker falls inside the range, inclusive of
// both bounds. A zero-length range contains exactly its single marker.
func (r MarkerRange) Contains(marker float64) bool {
	lo, hi := r.Normalized()
	return marker >= lo && marker <= hi
}

// Overlaps reports whether two ranges intersect, inclusive at the endpoints.
func (r MarkerRange) Overlaps(other MarkerRange) bool {
	lo, hi := r.Normalized()
	olo, ohi := other.Normalized()
	return lo <= ohi && hi >= olo
}

// routePrefixes are route-type markers stripped before comparison. Order
// matters only in that hyphenated and spaced forms both appear.
var routePrefixes = []string{
	"INTERSTATE ", "I-", "I ",
	"US-", "US ",
	"SH-", "SH ",
	"SR-", "SR ",
	"CO-", "CO ",
	"HWY-", "HWY ", "HIGHWAY ",
}

// RouteMatches reports whether a raw feed route name refers to the same route
// as a configured route id. Both sides are canonicalized: route-type prefixes
// and leading zeros are stripped, and a joint route+direction code (e.g.
// "070W") has its direction letter split off first.
func RouteMatches(rawRouteName, configRouteID string) bool {
	raw := canonicalRoute(rawRouteName)
	cfg := canonicalRoute(configRouteID)
	return raw != "" && raw == cfg
}

// SplitRouteDirection splits a joint route+direction code such as "070W" into
// its numeric route part and a canonical direction. Codes without a trailing
// direction letter come back unchanged with an empty direction.
func SplitRouteDirection(code string) (string, string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return code, ""
	}
	last := code[len(code)-1]
	if !strings.ContainsRune("NSEWB", rune(last)) {
		return code, ""
	}
	head := code[:len(code)-1]
	for _, c := range head {
		if c < '0' || c > '9' {
			return code, ""
		}
	}
	return head, CanonicalDirection(string(last))
}

func canonicalRoute(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s, _ = SplitRouteDirection(s)
	for _, p := range routePrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.TrimLeft(s, "0")
	return s
}

// directionSpellings maps every recognized spelling to its canonical form.
// Each direction accepts the full word, the "-bound" forms, the two-letter
// abbreviation, and the single letter. "Both" is a wildcard.
var directionSpellings = map[string]string{
	"north": "north", "n": "north", "nb": "north",
	"south": "south", "s": "south", "sb": "south",
	"east": "east", "e": "east", "eb": "east",
	"west": "west", "w": "west", "wb": "west",
	"both": "both", "b": "both", "bidirectional": "both", "both directions": "both",
}

// CanonicalDirection normalizes a direction spelling to one of north, south,
// east, west, or both. Unrecognized values return "".
func CanonicalDirection(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "-bound")
	s = strings.TrimSuffix(s, " bound")
	s = strings.TrimSuffix(s, "bound")
	return directionSpellings[s]
}

// DirectionMatches reports whether a raw feed direction is compatible with a
// configured direction. "Both directions" matches anything; a missing or
// unrecognized value on either side fails the match.
func DirectionMatches(rawDirection, configDirection string) bool {
	raw := CanonicalDirection(rawDirection)
	cfg := CanonicalDirection(configDirection)
	if raw == "" || cfg == "" {
		return false
	}
	if raw == "both" || cfg == "both" {
		return true
	}
	return raw == cfg
}
