package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchNotifiable queries every secondary source that applies to the
// country in parallel. Sources never fail the group: each one logs its own
// problem and contributes nothing. The merged order is fixed:
// TB, HIV, Malaria, Measles, CDC.
func (c *Client) FetchNotifiable(ctx context.Context, country *CountryData, l *searchLog) []Report {
	iso2 := country.CountryInfo.ISO2
	iso3 := country.CountryInfo.ISO3
	name := country.Country

	var fetchers []func(context.Context) []Report
	if iso3 != "" {
		fetchers = append(fetchers,
			func(ctx context.Context) []Report { return c.FetchTB(ctx, iso3, l) },
			func(ctx context.Context) []Report { return c.FetchHIV(ctx, iso3, l) },
			func(ctx context.Context) []Report { return c.FetchMalaria(ctx, iso3, l) },
		)
	}
	if name != "" {
		fetchers = append(fetchers, func(ctx context.Context) []Report { return c.FetchMeasles(ctx, name, l) })
	}
	if iso2 == "US" {
		fetchers = append(fetchers, func(ctx context.Context) []Report { return c.FetchCDC(ctx, l) })
	}

	results := make([][]Report, len(fetchers))
	var g errgroup.Group
	for i, fetch := range fetchers {
		g.Go(func() error {
			results[i] = fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var merged []Report
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
