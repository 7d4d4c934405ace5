package film

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	abbreviatedRe = regexp.MustCompile(`^([\d,]+(?:\.\d+)?)\s*([KMB])?$`)
	hoursRe       = regexp.MustCompile(`(\d+)\s*h(?:\s*(\d+)\s*m)?`)
	minutesRe     = regexp.MustCompile(`(\d+)`)
	histogramRe   = regexp.MustCompile(`^([\d,]+)\s+(★*)(½)?\s+ratings?(?:\s+\((\d+)%\))?`)
	weightedRe    = regexp.MustCompile(`Weighted average of ([\d.]+) based on ([\d,]+)`)
	commaNumberRe = regexp.MustCompile(`[\d,]+`)
)

// parseAbbreviatedCount turns letterboxd's humanized counts into integers:
// "712K" is 712000, "1.5M" is 1500000, "183,456" is 183456. fractional
// counts only show up with a suffix so the result is always whole.
func parseAbbreviatedCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	m := abbreviatedRe.FindStringSubmatch(strings.ToUpper(s))
	if m == nil {
		return 0, fmt.Errorf("unrecognized count %q", s)
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, err
	}
	switch m[2] {
	case "K":
		n *= 1_000
	case "M":
		n *= 1_000_000
	case "B":
		n *= 1_000_000_000
	}
	return int64(n), nil
}

// parseRuntime accepts both runtime spellings the site uses, "132 mins" and
// "2h 11m", returning whole minutes.
func parseRuntime(s string) (int, error) {
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		return hours*60 + minutes, nil
	}
	if m := minutesRe.FindString(s); m != "" {
		return strconv.Atoi(m)
	}
	return 0, fmt.Errorf("unrecognized runtime %q", s)
}

// parseHistogramTitle reads one histogram bar's tooltip, e.g.
// "152,638 ★★★★★ ratings (28%)". the half-star glyph adds 0.5 to the star
// count. bars with zero ratings ("No ★½ ratings") don't match and are
// reported as such.
func parseHistogramTitle(title string) (stars float64, count int64, percent int, ok bool) {
	m := histogramRe.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return 0, 0, 0, false
	}
	count, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0, 0, 0, false
	}
	stars = float64(len([]rune(m[2])))
	if m[3] != "" {
		stars += 0.5
	}
	if stars == 0 {
		return 0, 0, 0, false
	}
	if m[4] != "" {
		percent, _ = strconv.Atoi(m[4])
	}
	return stars, count, percent, true
}

// starsKey names a histogram bucket: stars_5, stars_3.5, ...
func starsKey(stars float64) string {
	return "stars_" + strconv.FormatFloat(stars, 'f', -1, 64)
}

// parseWeightedAverage reads the rating tooltip, e.g.
// "Weighted average of 4.57 based on 1,234,567 ratings".
func parseWeightedAverage(s string) (average float64, total int64, ok bool) {
	m := weightedRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	average, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return average, total, true
}

// parseExactCount pulls the first comma-grouped number out of phrases like
// "Watched by 4,137,451 members".
func parseExactCount(s string) (int64, error) {
	m := commaNumberRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no count in %q", s)
	}
	return strconv.ParseInt(strings.ReplaceAll(m, ",", ""), 10, 64)
}
