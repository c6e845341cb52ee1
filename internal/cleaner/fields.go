package cleaner

import "cryptoetl/internal/market"

type fieldAction int

const (
	actionDrop fieldAction = iota
	actionPassThrough
	actionFlattenROI
)

// fieldActions classifies every key the cleaner knows. Keys missing from the
// table are dropped. The roi_* columns pass through so already-flattened
// records normalize to themselves.
var fieldActions = map[string]fieldAction{
	"id":                               actionPassThrough,
	"symbol":                           actionPassThrough,
	"name":                             actionPassThrough,
	"image":                            actionPassThrough,
	"current_price":                    actionPassThrough,
	"market_cap":                       actionPassThrough,
	"market_cap_rank":                  actionPassThrough,
	"fully_diluted_valuation":          actionPassThrough,
	"total_volume":                     actionPassThrough,
	"high_24h":                         actionPassThrough,
	"low_24h":                          actionPassThrough,
	"price_change_24h":                 actionPassThrough,
	"price_change_percentage_24h":      actionPassThrough,
	"market_cap_change_24h":            actionPassThrough,
	"market_cap_change_percentage_24h": actionPassThrough,
	"circulating_supply":               actionPassThrough,
	"total_supply":                     actionPassThrough,
	"max_supply":                       actionPassThrough,
	"ath":                              actionPassThrough,
	"ath_change_percentage":            actionPassThrough,
	"ath_date":                         actionPassThrough,
	"atl":                              actionPassThrough,
	"atl_change_percentage":            actionPassThrough,
	"atl_date":                         actionPassThrough,
	"last_updated":                     actionPassThrough,
	market.FieldROITimes:               actionPassThrough,
	market.FieldROICurrency:            actionPassThrough,
	market.FieldROIPercentage:          actionPassThrough,
	market.FieldROI:                    actionFlattenROI,
}

// roiColumns maps roi sub-keys to their flattened column names.
var roiColumns = [...]struct{ sub, column string }{
	{"times", market.FieldROITimes},
	{"currency", market.FieldROICurrency},
	{"percentage", market.FieldROIPercentage},
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
		return true
	default:
		return false
	}
}
