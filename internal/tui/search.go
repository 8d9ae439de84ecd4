package tui

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/wayfind/internal/events"
)

// RankMarkers orders markers by how well their titles match query.
// Prefix and substring hits come first, then near-misses by edit
// distance, so a typo like "cafe lnua" still surfaces Cafe Luna.
func RankMarkers(query string, markers []events.Item) []events.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]events.Item(nil), markers...)
	}

	type scored struct {
		item events.Item
		rank int
		dist int
	}
	results := make([]scored, 0, len(markers))
	for _, m := range markers {
		title := strings.ToLower(m.Title)
		rank := 2
		switch {
		case strings.HasPrefix(title, q):
			rank = 0
		case strings.Contains(title, q):
			rank = 1
		}
		results = append(results, scored{
			item: m,
			rank: rank,
			dist: levenshtein.ComputeDistance(q, title),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].rank != results[j].rank {
			return results[i].rank < results[j].rank
		}
		return results[i].dist < results[j].dist
	})

	out := make([]events.Item, 0, len(results))
	for _, r := range results {
		out = append(out, r.item)
	}
	return out
}
