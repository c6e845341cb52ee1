package tabular

// Row is one output row. Every column is nullable; a nil pointer is a null.
type Row struct {
	ID                           *string  `parquet:"id" mapstructure:"id"`
	Symbol                       *string  `parquet:"symbol" mapstructure:"symbol"`
	Name                         *string  `parquet:"name" mapstructure:"name"`
	Image                        *string  `parquet:"image" mapstructure:"image"`
	CurrentPrice                 *float64 `parquet:"current_price" mapstructure:"current_price"`
	MarketCap                    *float64 `parquet:"market_cap" mapstructure:"market_cap"`
	MarketCapRank                *float64 `parquet:"market_cap_rank" mapstructure:"market_cap_rank"`
	FullyDilutedValuation        *float64 `parquet:"fully_diluted_valuation" mapstructure:"fully_diluted_valuation"`
	TotalVolume                  *float64 `parquet:"total_volume" mapstructure:"total_volume"`
	High24h                      *float64 `parquet:"high_24h" mapstructure:"high_24h"`
	Low24h                       *float64 `parquet:"low_24h" mapstructure:"low_24h"`
	PriceChange24h               *float64 `parquet:"price_change_24h" mapstructure:"price_change_24h"`
	PriceChangePercentage24h     *float64 `parquet:"price_change_percentage_24h" mapstructure:"price_change_percentage_24h"`
	MarketCapChange24h           *float64 `parquet:"market_cap_change_24h" mapstructure:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64 `parquet:"market_cap_change_percentage_24h" mapstructure:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64 `parquet:"circulating_supply" mapstructure:"circulating_supply"`
	TotalSupply                  *float64 `parquet:"total_supply" mapstructure:"total_supply"`
	MaxSupply                    *float64 `parquet:"max_supply" mapstructure:"max_supply"`
	ATH                          *float64 `parquet:"ath" mapstructure:"ath"`
	ATHChangePercentage          *float64 `parquet:"ath_change_percentage" mapstructure:"ath_change_percentage"`
	ATHDate                      *string  `parquet:"ath_date" mapstructure:"ath_date"`
	ATL                          *float64 `parquet:"atl" mapstructure:"atl"`
	ATLChangePercentage          *float64 `parquet:"atl_change_percentage" mapstructure:"atl_change_percentage"`
	ATLDate                      *string  `parquet:"atl_date" mapstructure:"atl_date"`
	ROITimes                     *float64 `parquet:"roi_times" mapstructure:"roi_times"`
	ROICurrency                  *string  `parquet:"roi_currency" mapstructure:"roi_currency"`
	ROIPercentage                *float64 `parquet:"roi_percentage" mapstructure:"roi_percentage"`
	LastUpdated                  *string  `parquet:"last_updated" mapstructure:"last_updated"`
}

type columnKind int

const (
	kindString columnKind = iota
	kindFloat
)

// columns is the fixed projection, in Row field order.
var columns = []struct {
	name string
	kind columnKind
}{
	{"id", kindString},
	{"symbol", kindString},
	{"name", kindString},
	{"image", kindString},
	{"current_price", kindFloat},
	{"market_cap", kindFloat},
	{"market_cap_rank", kindFloat},
	{"fully_diluted_valuation", kindFloat},
	{"total_volume", kindFloat},
	{"high_24h", kindFloat},
	{"low_24h", kindFloat},
	{"price_change_24h", kindFloat},
	{"price_change_percentage_24h", kindFloat},
	{"market_cap_change_24h", kindFloat},
	{"market_cap_change_percentage_24h", kindFloat},
	{"circulating_supply", kindFloat},
	{"total_supply", kindFloat},
	{"max_supply", kindFloat},
	{"ath", kindFloat},
	{"ath_change_percentage", kindFloat},
	{"ath_date", kindString},
	{"atl", kindFloat},
	{"atl_change_percentage", kindFloat},
	{"atl_date", kindString},
	{"roi_times", kindFloat},
	{"roi_currency", kindString},
	{"roi_percentage", kindFloat},
	{"last_updated", kindString},
}

// project keeps the schema columns of rec whose value has the column's type.
// Anything else becomes null.
func project(rec map[string]any) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		v, ok := rec[col.name]
		if !ok || v == nil {
			continue
		}
		switch col.kind {
		case kindString:
			if s, ok := v.(string); ok {
				out[col.name] = s
			}
		case kindFloat:
			if f, ok := toFloat(v); ok {
				out[col.name] = f
			}
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
