package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	germanDatePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})$`)
	clockTimePattern  = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?(?:\s*uhr)?$`)
)

// NormalizeDate converts DD.MM.YYYY and DD.MM.YY to YYYY-MM-DD. Anything else,
// including out-of-range components, is returned trimmed but unchanged.
func NormalizeDate(input string) string {
	trimmed := strings.TrimSpace(input)
	m := germanDatePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return trimmed
	}
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day)
}

// NormalizeTime converts H, H:MM and "H Uhr" to HH:MM. Anything else is
// returned trimmed but unchanged.
func NormalizeTime(input string) string {
	trimmed := strings.TrimSpace(input)
	m := clockTimePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return trimmed
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
