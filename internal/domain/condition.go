package domain

import "strings"

// conditionRanks orders surface-condition vocabulary from worst to least
// severe. Matching is case-insensitive substring against the raw description,
// so "Blowing Snow" and "Snow Packed" both rank as snow.
var conditionRanks = []struct {
	keyword string
	rank    int
}{
	{"icy", 5},
	{"ice", 5},
	{"snow", 4},
	{"slush", 3},
	{"wet", 2},
	{"dry", 1},
}

func conditionRank(description string) int {
	desc := strings.ToLower(description)
	best := 0
	for _, c := range conditionRanks {
		if c.rank > best && strings.Contains(desc, c.keyword) {
			best = c.rank
		}
	}
	return best
}

// WorstCondition picks the most severe surface condition out of a list of
// free-text descriptions. Ties keep the first-seen literal text so the
// display string matches what the feed actually said. A best match of "dry"
// or an unrecognized vocabulary reports absence (empty string), never a
// false positive.
func WorstCondition(descriptions []string) string {
	worst := ""
	worstRank := 0
	for _, d := range descriptions {
		if r := conditionRank(d); r > worstRank {
			worst = strings.TrimSpace(d)
			worstRank = r
		}
	}
	if worstRank <= 1 {
		return ""
	}
	return worst
}
