package search

import (
	"strings"
	"testing"

	"github.com/grafeasgroup/buttercup/blossom"
)

func TestTranscriptionType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"image with source", "*Image Transcription: Tumblr*\n\n---\n\nbody", "Tumblr"},
		{"image plain", "*Image Transcription*\n\n---\n\nbody", "Image"},
		{"video", "*Video Transcription:*\n\n---\n\nbody", "Video"},
		{"case insensitive", "*image transcription: Twitter*\n\n---\n\nbody", "Twitter"},
		{"no header", "just some text without a header", "Post"},
		{"header after separator ignored", "body\n\n---\n\n*Image Transcription*", "Post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranscriptionType(blossom.Transcription{Text: tt.text})
			if got != tt.want {
				t.Errorf("TranscriptionType(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatResultHeader(t *testing.T) {
	result := blossom.Transcription{
		Text: "*Image Transcription: Tumblr*\n\n---\n\nhello world",
		URL:  "https://reddit.com/r/CuratedTumblr/comments/abc123/post/",
	}
	got := FormatResult(result, 3, "hello")
	if !strings.HasPrefix(got, "**3.** [Tumblr on r/CuratedTumblr](https://reddit.com/r/CuratedTumblr/comments/abc123/post/)\n```\n") {
		t.Errorf("header line wrong:\n%s", got)
	}
}

func TestFormatResultUnderlineAlignment(t *testing.T) {
	result := blossom.Transcription{
		Text: "say hello there",
		URL:  "https://reddit.com/r/sub/comments/x/y/",
	}
	got := FormatResult(result, 1, "hello")

	lines := strings.Split(got, "\n")
	// lines[0] header, lines[1] "```", lines[2] occurrence, lines[3] underline
	occ, underline := lines[2], lines[3]
	if occ != "L1: say hello there" {
		t.Fatalf("occurrence line = %q", occ)
	}
	wantUnderline := strings.Repeat(" ", len("L1: say ")) + "-----"
	if underline != wantUnderline {
		t.Errorf("underline = %q, want %q", underline, wantUnderline)
	}
}

func TestFormatResultContextTruncation(t *testing.T) {
	long := strings.Repeat("a", 50) + "needle" + strings.Repeat("b", 50)
	result := blossom.Transcription{Text: long, URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "needle")

	want := "L1: ..." + strings.Repeat("a", 20) + "needle" + strings.Repeat("b", 20) + "..."
	if !strings.Contains(got, want) {
		t.Errorf("truncated occurrence missing.\ngot:\n%s\nwant line:\n%s", got, want)
	}
}

func TestFormatResultCaseInsensitiveMatch(t *testing.T) {
	result := blossom.Transcription{Text: "HELLO world", URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "hello")
	// The original casing is preserved in the rendered line.
	if !strings.Contains(got, "L1: HELLO world") {
		t.Errorf("expected original casing preserved:\n%s", got)
	}
}

func TestFormatResultUnicodeBeforeMatch(t *testing.T) {
	// "Ⱥ" lowercases to "ⱥ", which is one byte longer in UTF-8. Byte offsets
	// computed on a lowered copy would point past the end of the original
	// line here.
	result := blossom.Transcription{Text: "ȺȺȺȺȺȺhello", URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "hello")

	lines := strings.Split(got, "\n")
	occ, underline := lines[2], lines[3]
	if occ != "L1: ȺȺȺȺȺȺhello" {
		t.Fatalf("occurrence line = %q", occ)
	}
	wantUnderline := strings.Repeat(" ", len("L1: ")+6) + "-----"
	if underline != wantUnderline {
		t.Errorf("underline = %q, want %q", underline, wantUnderline)
	}
}

func TestFormatResultUnicodeFoldedMatch(t *testing.T) {
	result := blossom.Transcription{Text: "say ⱥ here", URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "Ⱥ")

	if !strings.Contains(got, "L1: say ⱥ here") {
		t.Errorf("expected folded match with original casing preserved:\n%s", got)
	}
	underline := strings.Repeat(" ", len("L1: say ")) + "-"
	if !strings.Contains(got, "\n"+underline+"\n") {
		t.Errorf("underline misaligned:\n%s", got)
	}
}

func TestFormatResultContextTruncationCountsRunes(t *testing.T) {
	long := strings.Repeat("é", 50) + "needle" + strings.Repeat("é", 50)
	result := blossom.Transcription{Text: long, URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "needle")

	want := "L1: ..." + strings.Repeat("é", 20) + "needle" + strings.Repeat("é", 20) + "..."
	if !strings.Contains(got, want) {
		t.Errorf("truncated occurrence missing.\ngot:\n%s\nwant line:\n%s", got, want)
	}
}

func TestFormatResultMoreOccurrencesNote(t *testing.T) {
	// Six matches; only four are rendered.
	text := strings.TrimSpace(strings.Repeat("cat line\n", 6))
	result := blossom.Transcription{Text: text, URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "cat")

	for _, line := range []string{"L1:", "L2:", "L3:", "L4:"} {
		if !strings.Contains(got, line) {
			t.Errorf("missing rendered occurrence %s:\n%s", line, got)
		}
	}
	if strings.Contains(got, "L5:") {
		t.Errorf("rendered more occurrences than the cap:\n%s", got)
	}
	if !strings.Contains(got, "... and 2 more occurrences") {
		t.Errorf("missing more-occurrences note:\n%s", got)
	}
}

func TestFormatResultMultipleMatchesOnOneLine(t *testing.T) {
	result := blossom.Transcription{Text: "dog dog dog", URL: "https://reddit.com/r/sub/comments/x/y/"}
	got := FormatResult(result, 1, "dog")

	// Each of the three matches gets its own occurrence block on line 1.
	if n := strings.Count(got, "L1: "); n != 3 {
		t.Errorf("rendered %d occurrences for line 1, want 3:\n%s", n, got)
	}
	if strings.Contains(got, "more occurrences") {
		t.Errorf("unexpected more-occurrences note:\n%s", got)
	}
}
