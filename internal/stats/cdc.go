package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var cdcConditions = []string{"Measles", "Mumps", "Pertussis"}

// flexNumber decodes Socrata numbers, which arrive either as JSON numbers
// or as numeric strings.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = flexNumber(b)
	return nil
}

func (n flexNumber) float() float64 {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return v
}

type cdcRow struct {
	Year          flexNumber `json:"mmwr_year"`
	Week          flexNumber `json:"mmwr_week"`
	Condition     string     `json:"condition"`
	Cases         flexNumber `json:"cases"`
	NumberOfCases flexNumber `json:"number_of_cases"`
}

func (c *Client) cdcURL() string {
	quoted := make([]string, len(cdcConditions))
	for i, cond := range cdcConditions {
		quoted[i] = "'" + cond + "'"
	}
	q := url.Values{}
	q.Set("$select", "mmwr_year,mmwr_week,condition,sum(number_of_cases) as cases")
	q.Set("$where", "reporting_area='UNITED STATES' AND condition in("+strings.Join(quoted, ",")+")")
	q.Set("$group", "mmwr_year,mmwr_week,condition")
	q.Set("$order", "mmwr_year DESC, mmwr_week DESC")
	q.Set("$limit", "90")
	return c.sources.CDC + "?" + q.Encode()
}

// FetchCDC loads the latest provisional weekly counts from the CDC NNDSS
// dataset. It only makes sense for the United States.
func (c *Client) FetchCDC(ctx context.Context, l *searchLog) []Report {
	l.note("Loading CDC NNDSS weekly notifiable diseases (US)...")

	rows, err := c.cdcRows(ctx)
	if err != nil {
		l.fail("CDC NNDSS fetch failed", err.Error())
		return nil
	}

	// Rows are newest first; keep the first row seen per condition.
	seen := make(map[string]bool)
	var reports []Report
	for _, r := range rows {
		if seen[r.Condition] {
			continue
		}
		seen[r.Condition] = true

		cases := r.Cases.float()
		if r.Cases == "" {
			cases = r.NumberOfCases.float()
		}
		year, week := string(r.Year), string(r.Week)
		if year == "" {
			year = "—"
		}
		if week == "" {
			week = "—"
		} else if len(week) < 2 {
			week = "0" + week
		}

		reports = append(reports, Report{
			Disease:    r.Condition,
			Cases:      cases,
			Period:     fmt.Sprintf("MMWR %s-W%s", year, week),
			Rate:       NoRate,
			Trend:      TrendStable,
			Source:     "CDC NNDSS",
			ReportType: "Weekly (Provisional)",
		})
	}

	if len(reports) > 0 {
		l.note(fmt.Sprintf("CDC NNDSS loaded (%d rows)", len(reports)))
	}
	return reports
}

func (c *Client) cdcRows(ctx context.Context) ([]cdcRow, error) {
	header := map[string]string{}
	if c.sources.CDCAppToken != "" {
		header["X-App-Token"] = c.sources.CDCAppToken
	}

	resp, err := c.get(ctx, c.cdcURL(), "application/json", header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "CDC NNDSS"); err != nil {
		return nil, err
	}

	var rows []cdcRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode CDC response: %w", err)
	}
	return rows, nil
}
