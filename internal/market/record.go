package market

// Source identifies the API every batch is fetched from.
const Source = "coingecko"

// TimestampLayout formats the load timestamp embedded in batch file names.
const TimestampLayout = "20060102_150405"

// Record is one market entry as returned by the /coins/markets endpoint.
type Record map[string]any

// ROI sub-object keys and the flattened columns they map to.
const (
	FieldROI           = "roi"
	FieldROITimes      = "roi_times"
	FieldROICurrency   = "roi_currency"
	FieldROIPercentage = "roi_percentage"
)

// RequiredFields lists the keys every fetched record must carry, in the
// order they are checked.
var RequiredFields = []string{
	"id",
	"symbol",
	"name",
	"image",
	"current_price",
	"market_cap",
	"market_cap_rank",
	"fully_diluted_valuation",
	"total_volume",
	"high_24h",
	"low_24h",
	"price_change_24h",
	"price_change_percentage_24h",
	"market_cap_change_24h",
	"market_cap_change_percentage_24h",
	"circulating_supply",
	"total_supply",
	"max_supply",
	"ath",
	"ath_change_percentage",
	"ath_date",
	"atl",
	"atl_change_percentage",
	"atl_date",
	FieldROI,
	"last_updated",
}

// ID returns the record's id field, or "" when it is absent or not a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
