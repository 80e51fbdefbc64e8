// Package helpers contains stateless parsing and formatting utilities shared
// by the bot commands: Reddit username extraction, UTC offset detection from
// Discord display names, user-supplied time expressions, and small formatting
// helpers for chat output.
package helpers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	usernameRegex = regexp.MustCompile(`^(?:/?u/)?(\S+)(.*)$`)
	timezoneRegex = regexp.MustCompile(`(?i)UTC(?:([+-]\d+(?:\.\d+)?)(?::(\d+))?)?`)
)

// ErrNoUsername is returned when a username could not be extracted.
var ErrNoUsername = fmt.Errorf("no username provided")

// ExtractUsername pulls the Reddit username out of a Discord display name,
// stripping an optional "u/" or "/u/" prefix and any trailing decoration
// (timezone suffixes etc.).
func ExtractUsername(displayName string) (string, error) {
	m := usernameRegex.FindStringSubmatch(strings.TrimSpace(displayName))
	if m == nil || m[1] == "" {
		return "", ErrNoUsername
	}
	return m[1], nil
}

// EscapeFormatting escapes Discord markdown characters in a username.
func EscapeFormatting(username string) string {
	username = strings.ReplaceAll(username, "_", "\\_")
	return strings.ReplaceAll(username, "*", "\\*")
}

// ExtractUTCOffset reads the user's timezone from their display name
// (e.g. "user [UTC+2]" or "user UTC-5:30") and returns the offset in seconds.
// Names without a recognizable timezone yield 0.
func ExtractUTCOffset(displayName string) int {
	m := usernameRegex.FindStringSubmatch(strings.TrimSpace(displayName))
	if m == nil || m[2] == "" {
		return 0
	}
	tz := timezoneRegex.FindStringSubmatch(m[2])
	if tz == nil {
		return 0
	}
	offset := 0
	if tz[1] != "" {
		hours, err := strconv.ParseFloat(tz[1], 64)
		if err != nil {
			return 0
		}
		offset += int(math.Floor(hours * 60 * 60))
	}
	if tz[2] != "" {
		minutes, err := strconv.Atoi(tz[2])
		if err == nil {
			offset += minutes * 60
		}
	}
	return offset
}

// UTCOffsetString renders a UTC offset in seconds as "UTC+02:00".
func UTCOffsetString(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
	}
	abs := offset
	if abs < 0 {
		abs = -abs
	}
	hours := abs / 3600
	minutes := (abs % 3600) / 60
	return fmt.Sprintf("UTC%s%02d:%02d", sign, hours, minutes)
}

// ExtractSubredditFromURL determines the subreddit ("r/name") from a Reddit
// permalink like https://reddit.com/r/name/comments/...
func ExtractSubredditFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 5 {
		return ""
	}
	return "r/" + parts[4]
}

// JoinWithAnd joins items with commas and a final "and".
func JoinWithAnd(items []string) string {
	if len(items) <= 2 {
		return strings.Join(items, " and ")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// ProgressBar renders a textual progress bar like `[#####     ]`. Counts over
// the total extend the bar past the closing bracket.
func ProgressBar(count, total, width int, displayCount bool) string {
	barCount := int(math.Round(float64(count) / float64(total) * float64(width)))
	inner := barCount
	if inner > width {
		inner = width
	}
	outer := barCount - inner
	bar := "`[" + strings.Repeat("#", inner) + strings.Repeat(" ", width-inner) + "]" + strings.Repeat("#", outer) + "`"
	if displayCount {
		bar += fmt.Sprintf(" (%d/%d)", count, total)
	}
	return bar
}
