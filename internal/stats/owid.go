package stats

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var measlesColumn = regexp.MustCompile(`(?i)reported[-_ ]?cases[-_ ]?of[-_ ]?measles`)

// FetchMeasles reads the OWID grapher CSV and reports the latest annual
// measles case count for the exact entity name.
func (c *Client) FetchMeasles(ctx context.Context, country string, l *searchLog) []Report {
	l.note("Loading OWID reported measles cases (annual)...")

	series, err := c.measlesSeries(ctx, country)
	if err != nil {
		l.fail("OWID measles fetch failed", err.Error())
		return nil
	}
	if len(series) == 0 {
		return nil
	}

	latest, trend := latestWithTrend(series)
	return []Report{{
		Disease:    "Measles (reported cases)",
		Cases:      latest.value,
		Period:     strconv.Itoa(latest.year),
		Rate:       NoRate,
		Trend:      trend,
		Source:     "OWID (WHO-reported)",
		ReportType: "Annual",
	}}
}

func (c *Client) measlesSeries(ctx context.Context, country string) ([]point, error) {
	resp, err := c.get(ctx, c.sources.OWID, "text/csv", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "OWID"); err != nil {
		return nil, err
	}
	return parseMeaslesCSV(resp.Body, country)
}

func parseMeaslesCSV(r io.Reader, country string) ([]point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read OWID header: %w", err)
	}

	idxEntity, idxYear, idxValue := -1, -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case h == "Entity":
			idxEntity = i
		case h == "Year":
			idxYear = i
		case idxValue < 0 && measlesColumn.MatchString(h):
			idxValue = i
		}
	}
	if idxEntity < 0 || idxYear < 0 || idxValue < 0 {
		return nil, nil
	}
	width := max(idxEntity, idxYear, idxValue)

	var series []point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read OWID row: %w", err)
		}
		if len(rec) <= width || rec[idxEntity] != country || rec[idxValue] == "" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[idxYear]))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[idxValue]), 64)
		if err != nil {
			continue
		}
		series = append(series, point{year: year, value: value})
	}
	return series, nil
}
