package model

// Coin is one entry of the reference list returned by the markets endpoint.
type Coin struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Image         string   `json:"image"`
	MarketCapRank *int     `json:"market_cap_rank,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	TotalVolume   *float64 `json:"total_volume,omitempty"`
	TotalSupply   *float64 `json:"total_supply,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
}

// Valid reports whether the coin carries the fields the selector needs.
func (c Coin) Valid() bool {
	return c.ID != "" && c.Name != "" && c.Image != ""
}

// SelectOption is a coin formatted for the asset selector.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Image string `json:"image"`
}
