package rates

// StateRate is the energy tariff of one state, in BRL per kWh.
type StateRate struct {
	State      string  `json:"state"`
	RatePerKWh float64 `json:"rate_per_kwh"`
}

// TableResponse is the JSON shape served for the tariff table.
type TableResponse struct {
	Currency    string      `json:"currency"`
	DefaultRate float64     `json:"default_rate"`
	Rates       []StateRate `json:"rates"`
}
