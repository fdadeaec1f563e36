package stats

import (
	"fmt"
	"math"
	"regexp"
)

const covidSource = "disease.sh API - Real Data"

var rateLabel = regexp.MustCompile(`(?i)per\s`)

func safeNum(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BuildHealthStats turns the country record and the notifiable reports into
// the display list: six COVID-19 rows followed by one row per report.
// Percentages are of the population and are only computed for absolute
// counts, never for rates such as "per 100k".
func BuildHealthStats(country *CountryData, reports []Report) []HealthStat {
	population := country.Population
	if population == 0 {
		population = 1
	}

	covid := []struct {
		label string
		value float64
	}{
		{"COVID-19 Total Cases", country.Cases},
		{"COVID-19 Deaths", country.Deaths},
		{"COVID-19 Recovered", country.Recovered},
		{"COVID-19 Active Cases", country.Active},
		{"COVID-19 Critical Cases", country.Critical},
		{"COVID-19 Tests Conducted", country.Tests},
	}

	out := make([]HealthStat, 0, len(covid)+len(reports))
	for _, row := range covid {
		v := safeNum(row.value)
		out = append(out, HealthStat{
			Illness:    row.label,
			Cases:      v,
			Percentage: v / population * 100,
			DataSource: covidSource,
			Type:       TypeCOVID,
		})
	}

	for _, r := range reports {
		cases := safeNum(r.Cases)
		var pct float64
		if !rateLabel.MatchString(r.Rate) {
			pct = cases / population * 100
		}
		trend := r.Trend
		if trend == "" {
			trend = TrendStable
		}
		out = append(out, HealthStat{
			Illness:    r.Disease,
			Cases:      cases,
			Percentage: pct,
			DataSource: fmt.Sprintf("%s - %s", r.Source, r.ReportType),
			Type:       TypeNotifiable,
			Period:     r.Period,
			Rate:       r.Rate,
			Trend:      trend,
		})
	}
	return out
}
