package core

import (
	"slices"

	m "findash/data/models"
)

const UngroupedName = "ungrouped"

type TickerGroup struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

// GroupTickers buckets the tickers by asset group in the canonical group order,
// keeping the ticker order within a group. Empty groups are left out and tickers
// with no known group end up in a trailing ungrouped bucket.
func GroupTickers(tickers []string, groups map[string]string) []TickerGroup {
	buckets := make(map[string][]string)
	for _, t := range tickers {
		g, ok := groups[t]
		if !ok || !slices.Contains(m.AssetGroups, g) {
			g = UngroupedName
		}
		buckets[g] = append(buckets[g], t)
	}

	res := make([]TickerGroup, 0, len(buckets))
	for _, g := range append(slices.Clone(m.AssetGroups), UngroupedName) {
		if ts, ok := buckets[g]; ok {
			res = append(res, TickerGroup{Name: g, Tickers: ts})
		}
	}
	return res
}
