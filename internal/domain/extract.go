package domain

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// number matches a decimal such as 5, 6.2 or 4.75.
const number = `([0-9]+(?:\.[0-9]+)?)`

// magnitudeRule sets one magnitude bound from the first capture group.
type magnitudeRule struct {
	re *regexp.Regexp
}

var (
	// minMagnitudeRules are tried in order; the first parseable match wins.
	minMagnitudeRules = []magnitudeRule{
		{regexp.MustCompile(`>=\s*` + number)},
		{regexp.MustCompile(`>\s*=\s*` + number)},
		{regexp.MustCompile(`\bmag(?:nitude)?\s*` + number + `\+?`)},
		{regexp.MustCompile(`\bm\s*` + number + `\+?`)},
		{regexp.MustCompile(number + `\s*\+`)},
		{regexp.MustCompile(`greater than\s*` + number)},
		{regexp.MustCompile(`above\s*` + number)},
	}

	maxMagnitudeRules = []magnitudeRule{
		{regexp.MustCompile(`<=\s*` + number)},
		{regexp.MustCompile(`<\s*=\s*` + number)},
		{regexp.MustCompile(`\bbelow\s*` + number)},
		{regexp.MustCompile(`\bunder\s*` + number)},
		{regexp.MustCompile(`less than\s*` + number)},
	}

	hoursRe    = regexp.MustCompile(`\b(?:last|past)\s+(\d+)\s+hours?\b`)
	lastHourRe = regexp.MustCompile(`\b(?:last|past)\s+hour\b`)
	daysRe     = regexp.MustCompile(`\b(?:last|past)\s+(\d+)\s+days?\b`)
	todayRe    = regexp.MustCompile(`\btoday\b`)
	weekRe     = regexp.MustCompile(`\bweek\b`)

	limitRe = regexp.MustCompile(`\b(?:show|list|get)\s+(\d+)`)

	// trailingPlaceRe captures "in|near|around <place>" at the very end of the text.
	trailingPlaceRe = regexp.MustCompile(`\b(?:in|near|around)\s+([a-z][a-z\s\-.,]*)$`)

	// lookbackPhraseRe matches a location candidate that is really a time window,
	// e.g. "the last 7 days" from "earthquakes in the last 7 days".
	lookbackPhraseRe = regexp.MustCompile(`^(?:the\s+)?(?:last|past)\s+(?:\d+\s+)?(?:hours?|days?|weeks?)$`)

	// lookbackTailRe strips time-window language trailing a place,
	// e.g. "japan in the last 7 days" -> "japan".
	lookbackTailRe = regexp.MustCompile(`(?:\s+(?:(?:in|within|over|during)\s+)?(?:the\s+)?(?:last|past)\s+(?:\d+\s+)?(?:hours?|days?|weeks?)|\s+today|\s+(?:this|last|past)\s+week)+$`)
)

// placeKeywords introduce a place in the fallback scan.
var placeKeywords = []string{" in ", " near ", " around "}

// maxPlaceWords caps how many words of a captured place are kept.
const maxPlaceWords = 4

// ExtractFilter parses free text into a Filter. It never fails: text with no
// recognizable signals yields DefaultFilter.
func ExtractFilter(text string) Filter {
	low := strings.ToLower(strings.TrimSpace(text))
	f := DefaultFilter()

	if v, ok := firstMagnitude(minMagnitudeRules, low); ok {
		f.MinMagnitude = v
	}
	if v, ok := firstMagnitude(maxMagnitudeRules, low); ok {
		f.MaxMagnitude = &v
	}
	f.HoursBack = extractHoursBack(low, f.HoursBack)
	if m := limitRe.FindStringSubmatch(low); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Limit = n
		}
	}
	f.Location = extractLocation(low)

	return f
}

// firstMagnitude returns the value captured by the first rule that matches and parses.
func firstMagnitude(rules []magnitudeRule, low string) (float64, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(low)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// extractHoursBack applies the lookback cascade. Days override hours;
// "today" and "week" only ever raise the window.
func extractHoursBack(low string, hours int) int {
	if m := hoursRe.FindStringSubmatch(low); m != nil {
		if n, ok := parseCount(m[1]); ok {
			hours = min(n, MaxHoursBack)
		}
	} else if lastHourRe.MatchString(low) {
		hours = 1
	}

	daysMatched := false
	if m := daysRe.FindStringSubmatch(low); m != nil {
		daysMatched = true
		if n, ok := parseCount(m[1]); ok {
			hours = min(n, MaxHoursBack/24) * 24
		}
	}

	if todayRe.MatchString(low) {
		hours = max(hours, 24)
	}
	if !daysMatched && weekRe.MatchString(low) {
		hours = max(hours, 7*24)
	}
	return hours
}

// parseCount parses a run of digits, saturating at math.MaxInt instead of
// failing on overflow.
func parseCount(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt, true
		}
		return 0, false
	}
	return n, true
}

// extractLocation tries the end-anchored pattern first, then falls back to the
// rightmost place keyword, skipping candidates that are only lookback language.
func extractLocation(low string) string {
	if m := trailingPlaceRe.FindStringSubmatch(low); m != nil {
		if loc := cleanPlace(m[1]); loc != "" {
			return loc
		}
	}

	for _, idx := range keywordPositions(low) {
		if loc := cleanPlace(low[idx:]); loc != "" {
			return loc
		}
	}
	return ""
}

// keywordPositions returns the offsets just past every place keyword, rightmost first.
func keywordPositions(low string) []int {
	var positions []int
	for _, kw := range placeKeywords {
		start := 0
		for {
			i := strings.Index(low[start:], kw)
			if i < 0 {
				break
			}
			positions = append(positions, start+i+len(kw))
			// Keywords share their surrounding spaces, so resume inside the match.
			start += i + 1
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	return positions
}

// cleanPlace trims a raw candidate to at most maxPlaceWords words, returning
// "" when nothing place-like remains.
func cleanPlace(candidate string) string {
	c := trimPunct(candidate)
	if c == "" || lookbackPhraseRe.MatchString(c) {
		return ""
	}
	c = trimPunct(lookbackTailRe.ReplaceAllString(" "+c, ""))
	if c == "" {
		return ""
	}

	words := strings.Fields(c)
	if len(words) > maxPlaceWords {
		words = words[:maxPlaceWords]
	}
	return trimPunct(strings.Join(words, " "))
}

func trimPunct(s string) string {
	return strings.Trim(s, " \t\n.,!?")
}
