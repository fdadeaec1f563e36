package stats

import "time"

type StatType string

const (
	TypeCOVID      StatType = "covid"
	TypeNotifiable StatType = "notifiable"
)

type Trend string

const (
	TrendIncreasing Trend = "Increasing"
	TrendDeclining  Trend = "Declining"
	TrendStable     Trend = "Stable"
)

// NoRate marks reports that are raw counts rather than rates.
const NoRate = "—"

type CountryInfo struct {
	ISO2 string `json:"iso2"`
	ISO3 string `json:"iso3"`
	Flag string `json:"flag"`
}

// CountryData is the subset of the disease.sh country payload we display.
type CountryData struct {
	Country     string      `json:"country"`
	CountryInfo CountryInfo `json:"countryInfo"`
	Continent   string      `json:"continent"`
	Population  float64     `json:"population"`
	Cases       float64     `json:"cases"`
	Deaths      float64     `json:"deaths"`
	Recovered   float64     `json:"recovered"`
	Active      float64     `json:"active"`
	Critical    float64     `json:"critical"`
	Tests       float64     `json:"tests"`
	Updated     int64       `json:"updated"`
}

// Report is one notifiable-disease figure from a secondary source.
type Report struct {
	Disease    string  `json:"disease"`
	Cases      float64 `json:"cases"`
	Period     string  `json:"period"`
	Rate       string  `json:"rate"`
	Trend      Trend   `json:"trend"`
	Source     string  `json:"source"`
	ReportType string  `json:"report_type"`
}

type HealthStat struct {
	Illness    string   `json:"illness"`
	Cases      float64  `json:"cases"`
	Percentage float64  `json:"percentage"`
	DataSource string   `json:"data_source"`
	Type       StatType `json:"type"`
	Period     string   `json:"period,omitempty"`
	Rate       string   `json:"rate,omitempty"`
	Trend      Trend    `json:"trend,omitempty"`
}

type LogEntry struct {
	Time  time.Time `json:"time"`
	Note  string    `json:"note,omitempty"`
	Error string    `json:"error,omitempty"`
	Debug string    `json:"debug,omitempty"`
}

type Result struct {
	Query       string       `json:"query"`
	Country     CountryData  `json:"country"`
	HealthStats []HealthStat `json:"health_stats"`
	Reports     []Report     `json:"notifiable_reports"`
	IsReal      bool         `json:"is_real"`
	LastUpdated time.Time    `json:"last_updated"`
	Logs        []LogEntry   `json:"logs"`
	Cached      bool         `json:"cached"`
}

// ByType returns the health stats of one kind, keeping their order.
func (r *Result) ByType(t StatType) []HealthStat {
	var out []HealthStat
	for _, s := range r.HealthStats {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
