package moderation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMinutes    = 10
	MaxTimeoutMinutes = 28 * 24 * 60
)

var (
	durationPattern = regexp.MustCompile(`^(\d+)([mhd])`)
	durationToken   = regexp.MustCompile(`^\d+[mhd]$`)
)

// ParseDuration reads "<n><m|h|d>" into minutes. Anything unparsable or
// non-positive is DefaultMinutes; "permanent" reports ok=false.
func ParseDuration(value string) (minutes int, ok bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultMinutes, true
	}
	if value == "permanent" {
		return 0, false
	}
	match := durationPattern.FindStringSubmatch(value)
	if match == nil {
		return DefaultMinutes, true
	}
	number, err := strconv.Atoi(match[1])
	if err != nil || number <= 0 {
		return DefaultMinutes, true
	}
	switch match[2] {
	case "h":
		return number * 60, true
	case "d":
		return number * 24 * 60, true
	default:
		return number, true
	}
}

// LooksLikeDuration tells a duration token apart from the first word of a reason.
func LooksLikeDuration(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "permanent" || durationToken.MatchString(value)
}

// ClampTimeout bounds a timeout to the platform maximum of 28 days.
func ClampTimeout(minutes int) int {
	if minutes <= 0 {
		return DefaultMinutes
	}
	if minutes > MaxTimeoutMinutes {
		return MaxTimeoutMinutes
	}
	return minutes
}

func FormatDuration(minutes int) string {
	switch {
	case minutes <= 0:
		return "Permanent"
	case minutes < 60:
		return plural(minutes, "minute")
	case minutes < 1440:
		hours, rest := minutes/60, minutes%60
		if rest > 0 {
			return plural(hours, "hour") + " " + plural(rest, "minute")
		}
		return plural(hours, "hour")
	default:
		days, rest := minutes/1440, (minutes%1440)/60
		if rest > 0 {
			return plural(days, "day") + " " + plural(rest, "hour")
		}
		return plural(days, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
