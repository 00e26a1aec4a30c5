package quiz

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the cooldown applied when no override parses.
const DefaultWindow = 7 * 24 * time.Hour

// ParseWindow converts a human-authored window spec such as "7d" or
// "3d 12h" into a duration. Units: d, h, m, s. Empty or unparseable
// input falls back to DefaultWindow.
func ParseWindow(spec string) time.Duration {
	total := time.Duration(0)
	ok := false
	for _, tok := range strings.Fields(spec) {
		d, valid := parseWindowToken(tok)
		if !valid {
			return DefaultWindow
		}
		total += d
		ok = true
	}
	if !ok || total <= 0 {
		return DefaultWindow
	}
	return total
}

// ValidWindow reports whether every token of the spec parses; authoring
// uses it to reject overrides that would silently fall back.
func ValidWindow(spec string) bool {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return false
	}
	for _, tok := range fields {
		if _, ok := parseWindowToken(tok); !ok {
			return false
		}
	}
	return true
}

func parseWindowToken(tok string) (time.Duration, bool) {
	if len(tok) < 2 {
		return 0, false
	}
	unit := tok[len(tok)-1]
	n, err := strconv.Atoi(tok[:len(tok)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	switch unit {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 's':
		return time.Duration(n) * time.Second, true
	default:
		return 0, false
	}
}
