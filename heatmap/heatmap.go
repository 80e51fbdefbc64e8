// Package heatmap turns Blossom day/hour activity records into a rendered
// heatmap table image attached to the /heatmap response.
package heatmap

import (
	"github.com/grafeasgroup/buttercup/blossom"
)

// Days and hours of the rendered table. Blossom reports ISO days (1=Monday).
const (
	NumDays  = 7
	NumHours = 24
)

// Table is the pivoted 7×24 activity grid. Cells without data are distinct
// from cells with a zero count.
type Table struct {
	Counts  [NumDays][NumHours]int
	Present [NumDays][NumHours]bool
	Max     int
	Total   int
}

// Pivot arranges the flat (day, hour, count) records into the table.
// Records with out-of-range coordinates are dropped.
func Pivot(entries []blossom.HeatmapEntry) *Table {
	t := &Table{}
	for _, e := range entries {
		day := e.Day - 1
		if day < 0 || day >= NumDays || e.Hour < 0 || e.Hour >= NumHours {
			continue
		}
		t.Counts[day][e.Hour] = e.Count
		t.Present[day][e.Hour] = true
		t.Total += e.Count
		if e.Count > t.Max {
			t.Max = e.Count
		}
	}
	return t
}
