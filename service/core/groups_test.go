package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "findash/data/models"
)

func Test_GroupTickers_CanonicalOrder(t *testing.T) {
	groups := map[string]string{
		"GOLD":   m.GroupCommodities,
		"APPLE":  m.GroupEquities,
		"mvrv":   m.GroupBlockchain,
		"TESLA":  m.GroupEquities,
		"ODD":    "crypto",
		"UNUSED": m.GroupFX,
	}

	res := GroupTickers([]string{"mvrv", "TESLA", "GOLD", "APPLE", "ODD", "NEW"}, groups)

	assert.Equal(t, []TickerGroup{
		{Name: m.GroupEquities, Tickers: []string{"TESLA", "APPLE"}},
		{Name: m.GroupCommodities, Tickers: []string{"GOLD"}},
		{Name: m.GroupBlockchain, Tickers: []string{"mvrv"}},
		{Name: UngroupedName, Tickers: []string{"ODD", "NEW"}},
	}, res)
}

func Test_GroupTickers_Empty(t *testing.T) {
	assert.Empty(t, GroupTickers(nil, map[string]string{"A": m.GroupFX}))
}
