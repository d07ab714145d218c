package models

import "time"

// asset groups used by the dashboard, mirrors how the tickers were bucketed in the analysis
const (
	GroupEquities    = "equities"
	GroupCommodities = "commodities"
	GroupIndices     = "indices"
	GroupRates       = "rates"
	GroupFX          = "fx"
	GroupBlockchain  = "blockchain"
)

var AssetGroups = []string{
	GroupEquities,
	GroupCommodities,
	GroupIndices,
	GroupRates,
	GroupFX,
	GroupBlockchain,
}

type TickerMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	AssetGroup    string    `db:"asset_group"`
	LastRefreshed time.Time `db:"last_refreshed"`
}
