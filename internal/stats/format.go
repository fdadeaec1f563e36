package stats

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatNumber renders counts compactly: 1.2M, 3.4K, or a grouped number
// below one thousand. Halves round away from zero.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1_000_000:
		return d.Div(million).StringFixed(1) + "M"
	case v >= 1_000:
		return d.Div(thousand).StringFixed(1) + "K"
	}
	f, _ := d.Round(3).Float64()
	return humanize.Commaf(f)
}

func FormatPercentage(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}
