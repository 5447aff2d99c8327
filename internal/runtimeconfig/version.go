package runtimeconfig

import (
	"strconv"
	"strings"
	"unicode"
)

// Rank of non-numeric version segments. Numbers sit between rc and pl.
const (
	rankUnknown = -6
	rankDev     = 0
	rankAlpha   = 1
	rankBeta    = 2
	rankRC      = 3
	rankNumber  = 4
	rankPatch   = 5
)

// CompareVersions compares two interpreter version strings the way PHP's
// version_compare does and returns -1, 0 or 1.
//
// Separators "_", "-" and "+" are treated as ".", and a "." is implied at
// every digit/non-digit boundary, so "8.1.0RC1" compares as 8.1.0.RC.1.
// Pre-release tags order below the release: dev < alpha < beta < RC < 8.1.0 < pl.
func CompareVersions(a, b string) int {
	pa := canonicalSegments(a)
	pb := canonicalSegments(b)

	n := min(len(pa), len(pb))
	for i := range n {
		if c := compareSegment(pa[i], pb[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(pa) > n:
		return compareTail(pa[n])
	case len(pb) > n:
		return -compareTail(pb[n])
	}
	return 0
}

// compareTail decides the ordering when one version has a segment the other
// lacks. A number means the longer version is newer ("1.0.1" > "1.0"); a
// special form is ranked against a bare number ("1.0rc1" < "1.0").
func compareTail(seg string) int {
	if isNumeric(seg) {
		return 1
	}
	return sign(specialRank(seg) - rankNumber)
}

func compareSegment(a, b string) int {
	an, bn := isNumeric(a), isNumeric(b)
	switch {
	case an && bn:
		return compareNumeric(a, b)
	case an:
		return sign(rankNumber - specialRank(b))
	case bn:
		return sign(specialRank(a) - rankNumber)
	default:
		return sign(specialRank(a) - specialRank(b))
	}
}

func compareNumeric(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		// Absurdly long digit runs; compare by magnitude then lexically.
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			return sign(len(a) - len(b))
		}
		return strings.Compare(a, b)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// specialRank matches by prefix, so "beta2" and "alpha-x" rank like their
// base form. Matching is case-sensitive except for RC/rc: "Alpha" and "DEV"
// rank as unknown, as in PHP.
func specialRank(s string) int {
	switch {
	case strings.HasPrefix(s, "dev"):
		return rankDev
	case strings.HasPrefix(s, "alpha"), strings.HasPrefix(s, "a"):
		return rankAlpha
	case strings.HasPrefix(s, "beta"), strings.HasPrefix(s, "b"):
		return rankBeta
	case strings.HasPrefix(s, "RC"), strings.HasPrefix(s, "rc"):
		return rankRC
	case s == "#":
		return rankNumber
	case strings.HasPrefix(s, "pl"), strings.HasPrefix(s, "p"):
		return rankPatch
	}
	return rankUnknown
}

// canonicalSegments splits a version string into its comparable segments.
func canonicalSegments(v string) []string {
	var segs []string
	var cur strings.Builder
	prevClass := 0 // 0 none, 1 digit, 2 other

	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}

	for _, r := range strings.TrimSpace(v) {
		switch {
		case r == '.' || r == '_' || r == '-' || r == '+':
			flush()
			prevClass = 0
			continue
		case unicode.IsDigit(r):
			if prevClass == 2 {
				flush()
			}
			prevClass = 1
		default:
			if prevClass == 1 {
				flush()
			}
			prevClass = 2
		}
		cur.WriteRune(r)
	}
	flush()
	return segs
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
