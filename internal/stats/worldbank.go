package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// World Bank WDI indicators used for the notifiable section.
const (
	IndicatorTB            = "SH.TBS.INCD"
	IndicatorHIV           = "SH.HIV.INCD.ZS"
	IndicatorMalaria       = "SH.MLR.INCD.P3"
	IndicatorMalariaLegacy = "SH.MLR.INCD"
)

type point struct {
	year  int
	value float64
}

// latestWithTrend sorts newest first and compares the two most recent points.
func latestWithTrend(series []point) (point, Trend) {
	sort.SliceStable(series, func(i, j int) bool { return series[i].year > series[j].year })
	latest := series[0]
	trend := TrendStable
	if len(series) > 1 {
		prev := series[1]
		if latest.value > prev.value {
			trend = TrendIncreasing
		} else if latest.value < prev.value {
			trend = TrendDeclining
		}
	}
	return latest, trend
}

type worldBankRow struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// FetchWorldBankSeries returns at most one report: the latest numeric value
// of indicator for iso3. Failures are logged and yield no report.
func (c *Client) FetchWorldBankSeries(ctx context.Context, iso3, indicator, label, rate string, l *searchLog) []Report {
	u := fmt.Sprintf("%s/v2/country/%s/indicator/%s?format=json&per_page=100",
		c.sources.WorldBank, url.PathEscape(iso3), url.PathEscape(indicator))

	l.note(fmt.Sprintf("Loading World Bank %s (%s)...", label, indicator))

	series, err := c.worldBankSeries(ctx, u)
	if err != nil {
		l.fail(fmt.Sprintf("World Bank %s fetch failed", label), err.Error())
		return nil
	}
	if len(series) == 0 {
		return nil
	}

	latest, trend := latestWithTrend(series)
	return []Report{{
		Disease:    label,
		Cases:      latest.value,
		Period:     strconv.Itoa(latest.year),
		Rate:       rate,
		Trend:      trend,
		Source:     fmt.Sprintf("World Bank (WDI %s)", indicator),
		ReportType: "Annual",
	}}
}

func (c *Client) worldBankSeries(ctx context.Context, u string) ([]point, error) {
	resp, err := c.get(ctx, u, "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "World Bank"); err != nil {
		return nil, err
	}

	// The payload is [metadata, rows]; rows is null for unknown countries.
	var parts []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&parts); err != nil {
		return nil, fmt.Errorf("decode World Bank response: %w", err)
	}
	if len(parts) < 2 {
		return nil, nil
	}

	var rows []worldBankRow
	if err := json.Unmarshal(parts[1], &rows); err != nil {
		return nil, nil
	}

	var series []point
	for _, r := range rows {
		if r.Value == nil || r.Date == "" {
			continue
		}
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			continue
		}
		series = append(series, point{year: year, value: *r.Value})
	}
	return series, nil
}

func (c *Client) FetchTB(ctx context.Context, iso3 string, l *searchLog) []Report {
	return c.FetchWorldBankSeries(ctx, iso3, IndicatorTB, "TB incidence", "per 100k", l)
}

func (c *Client) FetchHIV(ctx context.Context, iso3 string, l *searchLog) []Report {
	return c.FetchWorldBankSeries(ctx, iso3, IndicatorHIV, "HIV incidence (15–49)", "per 1k (15–49)", l)
}

// FetchMalaria tries the current indicator code and falls back to the
// retired one.
func (c *Client) FetchMalaria(ctx context.Context, iso3 string, l *searchLog) []Report {
	if r := c.FetchWorldBankSeries(ctx, iso3, IndicatorMalaria, "Malaria incidence", "per 1k at risk", l); len(r) > 0 {
		return r
	}
	return c.FetchWorldBankSeries(ctx, iso3, IndicatorMalariaLegacy, "Malaria incidence", "per 1k at risk", l)
}
