package search

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/grafeasgroup/buttercup/blossom"
	"github.com/grafeasgroup/buttercup/helpers"
)

const (
	// maxOccurrences caps how many highlighted matches a single result shows.
	maxOccurrences = 4
	// maxContext is the character budget on each side of a match before the
	// line is truncated with an ellipsis.
	maxContext = 20
)

// headerRegex parses transcription headers like "*Image Transcription: Tumblr*"
// to determine the transcription type.
var headerRegex = regexp.MustCompile(`(?i)^\s*\*(\w+)\s*Transcription:?(?:\s*([\w ]+))?\*`)

// TranscriptionType guesses the type of a transcription from its header.
// Transcriptions without a recognizable header count as "Post".
func TranscriptionType(t blossom.Transcription) string {
	header, _, _ := strings.Cut(t.Text, "---")
	m := headerRegex.FindStringSubmatch(header)
	if m == nil {
		return "Post"
	}
	format := strings.TrimSpace(m[1])
	kind := strings.TrimSpace(m[2])
	if kind != "" {
		return kind
	}
	return format
}

// FormatResult renders one search result: a numbered header line linking to
// the post, followed by a code block highlighting up to maxOccurrences
// occurrences of the query with surrounding context and an underline marker.
func FormatResult(result blossom.Transcription, num int, query string) string {
	queryRunes := []rune(query)

	trType := TranscriptionType(result)
	trSource := helpers.ExtractSubredditFromURL(result.URL)

	var b strings.Builder
	fmt.Fprintf(&b, "**%d.** [%s on %s](%s)\n```\n", num, trType, trSource, result.URL)

	shown := 0
	totalOccurrences := 0
	for i, line := range strings.Split(result.Text, "\n") {
		lineRunes := []rune(line)
		for pos := foldIndex(lineRunes, queryRunes, 0); pos >= 0; pos = foldIndex(lineRunes, queryRunes, pos+len(queryRunes)) {
			totalOccurrences++
			if shown < maxOccurrences {
				b.WriteString(formatQueryOccurrence(lineRunes, i+1, pos, len(queryRunes)))
				shown++
			}
		}
	}

	b.WriteString("```\n")
	if shown < totalOccurrences {
		fmt.Fprintf(&b, "... and %d more occurrences\n\n", totalOccurrences-shown)
	}
	return b.String()
}

// foldIndex returns the index of the first case-insensitive occurrence of
// query in runes at or after start, or -1. Working in runes keeps the
// reported position valid for slicing the original line even when case
// conversion changes a rune's encoded length.
func foldIndex(runes, query []rune, start int) int {
	if len(query) == 0 {
		return -1
	}
	for i := start; i+len(query) <= len(runes); i++ {
		match := true
		for j, q := range query {
			r := runes[i+j]
			if r != q && unicode.ToLower(r) != unicode.ToLower(q) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// formatQueryOccurrence renders a single match: the containing line with at
// most maxContext runes of context on each side, and a dashed underline
// aligned under the matched span.
func formatQueryOccurrence(line []rune, lineNum, pos, queryLen int) string {
	lineNumStr := fmt.Sprintf("L%d: ", lineNum)

	before, prefix := line[:pos], ""
	if len(before) > maxContext {
		before, prefix = before[len(before)-maxContext:], "..."
	}
	occurrence := line[pos : pos+queryLen]
	after, suffix := line[pos+queryLen:], ""
	if len(after) > maxContext {
		after, suffix = after[:maxContext], "..."
	}

	offset := len(lineNumStr) + len(prefix) + len(before)
	return lineNumStr + prefix + string(before) + string(occurrence) + string(after) + suffix + "\n" +
		strings.Repeat(" ", offset) + strings.Repeat("-", queryLen) + "\n"
}
