package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Threshold constants for the good/warning/bad color bands. Boundaries are
// inclusive at the top: 80.00 is good, 50.00 is warning.
const (
	goodThreshold    = 80.0
	warningThreshold = 50.0
)

const (
	colorGood    = "brightgreen"
	colorWarning = "yellow"
	colorBad     = "red"
)

const badgeBaseURL = "https://img.shields.io/badge/"

// Color maps a percentage to the badge color for its threshold band.
func Color(pct float64) string {
	switch {
	case pct >= goodThreshold:
		return colorGood
	case pct >= warningThreshold:
		return colorWarning
	default:
		return colorBad
	}
}

// badgeEscaper rewrites characters that break the badge path syntax: a
// literal hyphen is the field separator, a space ends the URL, and percent
// signs must be encoded.
var badgeEscaper = strings.NewReplacer(
	"-", "--",
	" ", "_",
	"%", "%25",
)

// EscapeBadgeText escapes s for embedding in a badge URL segment.
func EscapeBadgeText(s string) string {
	return badgeEscaper.Replace(s)
}

// Badge returns a markdown image embedding a shields.io badge with the
// given status text and color.
func Badge(status, color string) string {
	return fmt.Sprintf("![%s](%s%s-%s.svg)", status, badgeBaseURL, EscapeBadgeText(status), color)
}

// PercentBadge renders a percentage badge colorized by threshold.
func PercentBadge(pct float64) string {
	status := strconv.FormatFloat(pct, 'f', 2, 64) + "%"
	return Badge(status, Color(pct))
}

// RangeBadge renders a single uncovered-range badge.
func RangeBadge(rng string) string {
	return Badge(rng, colorBad)
}
