package search

// Control emojis attached to search result messages: the unicode
// track/triangle navigation buttons.
const (
	FirstPageEmoji    = "⏮️"
	PreviousPageEmoji = "◀️"
	NextPageEmoji     = "▶️"
	LastPageEmoji     = "⏭️"
)

// ControlEmojis returns the navigation emojis valid for the given display
// page, in the order they should appear under the message.
func ControlEmojis(page, totalPages int) []string {
	var controls []string
	if page > 0 {
		controls = append(controls, FirstPageEmoji, PreviousPageEmoji)
	}
	if page < totalPages-1 {
		controls = append(controls, NextPageEmoji, LastPageEmoji)
	}
	return controls
}

// DeltaForEmoji maps a reaction emoji to a page delta for the given position.
// It returns false for unknown emojis and for controls that are not currently
// offered (e.g. "previous" while on the first page); such reactions are
// ignored without an error.
func DeltaForEmoji(emoji string, page, totalPages int) (int, bool) {
	lastPage := totalPages - 1
	switch emoji {
	case FirstPageEmoji:
		if page > 0 {
			return -page, true
		}
	case PreviousPageEmoji:
		if page > 0 {
			return -1, true
		}
	case NextPageEmoji:
		if page < lastPage {
			return 1, true
		}
	case LastPageEmoji:
		if page < lastPage {
			return lastPage - page, true
		}
	}
	return 0, false
}
