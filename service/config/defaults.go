package config

import m "findash/data/models"

// the 34 series tracked by the original dashboard, named after their source files
var defaultTickerGroups = []struct {
	group   string
	symbols []string
}{
	{m.GroupEquities, []string{"AMAZON", "APPLE", "google", "TESLA"}},
	{m.GroupCommodities, []string{"GOLD", "CL1 COMB Comdty", "NG1 COMB Comdty", "CO1 COMB Comdty"}},
	{m.GroupIndices, []string{"DowJones", "Nasdaq", "S&P", "Cac40", "ftse", "NKY"}},
	{m.GroupRates, []string{"EURR002W", "DEYC2Y10", "USYC2Y10", "JPYC2Y10", "TED SPREAD JPN", "TED SPREAD US", "TED SPREAD EUR"}},
	{m.GroupFX, []string{"renminbiusd", "yenusd", "eurodollar", "gbpusd"}},
	{m.GroupBlockchain, []string{
		"active_address_count",
		"addr_cnt_bal_sup_10K",
		"addr_cnt_bal_sup_100K",
		"miner-revenue-native-unit",
		"miner-revenue-USD",
		"mvrv",
		"nvt",
		"tx-fees-btc",
		"tx-fees-usd",
	}},
}

func DefaultTickers() []TickerConfig {
	var res []TickerConfig
	for _, g := range defaultTickerGroups {
		for _, s := range g.symbols {
			res = append(res, TickerConfig{Symbol: s, Group: g.group})
		}
	}
	return res
}
