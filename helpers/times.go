package helpers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeTimeRegex matches expressions like "2 hours ago", "3.5d" or "12".
// First an amount, then an optional unit.
var relativeTimeRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(\w*)\s*(?:ago\s*)?$`)

// unitRegexes maps a canonical unit to the pattern accepting its spellings.
// Hour is the default, so its pattern also matches the empty string.
var unitRegexes = []struct {
	unit    string
	pattern *regexp.Regexp
	seconds float64
}{
	{"seconds", regexp.MustCompile(`^s(?:ec(?:ond)?s?)?$`), 1},
	{"minutes", regexp.MustCompile(`^min(?:ute)?s?$`), 60},
	{"hours", regexp.MustCompile(`^(?:h(?:ours?)?)?$`), 3600},
	{"days", regexp.MustCompile(`^d(?:ays?)?$`), 86400},
	{"weeks", regexp.MustCompile(`^w(?:eeks?)?$`), 7 * 86400},
	{"months", regexp.MustCompile(`^m(?:onths?)?$`), 30 * 86400},
	{"years", regexp.MustCompile(`^y(?:ears?)?$`), 365 * 86400},
}

// absoluteLayouts are tried in order when parsing absolute time strings.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"15:04:05",
	"15:04",
}

// TimeParseError is returned when a user-supplied time string is invalid.
type TimeParseError struct {
	Input string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid time string: %q", e.Input)
}

// ParseTime parses a user-supplied time expression, either relative
// ("2 weeks ago", "3h") or absolute ("2021-09-14", "2021-09-14 12:30").
// It returns the resolved time and a human-readable echo of what was parsed.
func ParseTime(input string, now time.Time) (time.Time, string, error) {
	if m := relativeTimeRegex.FindStringSubmatch(strings.TrimSpace(input)); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			for _, u := range unitRegexes {
				if !u.pattern.MatchString(m[2]) {
					continue
				}
				delta := time.Duration(amount * u.seconds * float64(time.Second))
				return now.Add(-delta), formatRelative(amount, u.unit), nil
			}
		}
	}

	for _, layout := range absoluteLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(input))
		if err != nil {
			continue
		}
		// Layouts without a date component parse into year 0; anchor them
		// to today.
		if t.Year() == 0 {
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
		if t.Location() == time.Local {
			t = t.UTC()
		}
		return t, formatAbsolute(t, now), nil
	}

	return time.Time{}, "", &TimeParseError{Input: input}
}

// ParseTimeConstraints resolves optional after/before strings into concrete
// bounds plus a "from X until Y" echo string. The keywords "start"/"none"
// (after) and "end"/"none" (before) leave the bound open.
func ParseTimeConstraints(afterStr, beforeStr string, now time.Time) (after, before time.Time, echo string, err error) {
	afterEcho := "the start"
	beforeEcho := "now"

	if afterStr != "" && afterStr != "start" && afterStr != "none" {
		after, afterEcho, err = ParseTime(afterStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, "", err
		}
	}
	if beforeStr != "" && beforeStr != "end" && beforeStr != "none" {
		before, beforeEcho, err = ParseTime(beforeStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, "", err
		}
	}
	return after, before, fmt.Sprintf("from %s until %s", afterEcho, beforeEcho), nil
}

func formatRelative(amount float64, unit string) string {
	amountStr := strconv.FormatFloat(amount, 'f', -1, 64)
	if amount == 1.0 {
		// Singular
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%s %s ago", amountStr, unit)
}

func formatAbsolute(t, now time.Time) string {
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		if t.Second() != 0 {
			return t.Format("15:04:05")
		}
		return t.Format("15:04")
	}
	layout := "2006-01-02"
	switch {
	case t.Second() != 0:
		layout += " 15:04:05"
	case t.Hour() != 0 || t.Minute() != 0:
		layout += " 15:04"
	}
	return t.Format(layout)
}

// DurationString formats an elapsed duration the way the bot reports
// processing times: the largest sensible unit with one decimal place.
func DurationString(d time.Duration) string {
	days := d.Hours() / 24
	switch {
	case days >= 365:
		return fmt.Sprintf("%.1f years", days/365)
	case days >= 7:
		return fmt.Sprintf("%.1f weeks", days/7)
	case days >= 1:
		return fmt.Sprintf("%.1f days", days)
	case d.Hours() >= 1:
		return fmt.Sprintf("%.1f hours", d.Hours())
	case d.Minutes() >= 1:
		return fmt.Sprintf("%.1f mins", d.Minutes())
	case d.Seconds() > 5:
		return fmt.Sprintf("%.1f secs", d.Seconds())
	}
	return fmt.Sprintf("%.0f ms", float64(d.Milliseconds()))
}

// DiscordTimestamp renders the Discord timestamp markup <t:unix:style>.
// Style should be one of the styles from the Discord message formatting docs.
func DiscordTimestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}
